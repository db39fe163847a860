package main

import "github.com/ZacxDev/hotel-site/cmd"

func main() {
	cmd.Execute()
}
