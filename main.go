package main

import "github.com/iksnae/voiceflow-portal/cmd"

func main() {
	cmd.Execute()
}
