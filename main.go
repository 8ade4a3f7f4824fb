package main

import "github.com/mouse-blink/qidicom/cmd"

func main() {
	cmd.Execute()
}
