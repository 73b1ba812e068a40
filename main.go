package main

import "postql/cmd"

func main() {
	cmd.Execute()
}
