package main

import "github.com/veedsify/mightyshare-api/cmd"

func main() {
	cmd.Execute()
}
