/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/pappi-calculator/authserver/cmd"

func main() {
	cmd.Execute()
}
