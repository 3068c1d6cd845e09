package main

import "github.com/lockplane/sqlbatch/cmd"

func main() {
	cmd.Execute()
}
