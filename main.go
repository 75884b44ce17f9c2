package main

import "github.com/cmmoran/designersync/cmd"

func main() {
	cmd.Execute()
}
