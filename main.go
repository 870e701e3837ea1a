package main

import "github.com/jackc/login-smoke/cmd"

func main() {
	cmd.Execute()
}
