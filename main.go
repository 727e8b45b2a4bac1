package main

import "github.com/gabrielNahmur/crm-gbi-whatsapp/cmd"

func main() {
	cmd.Execute()
}
