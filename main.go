package main

import (
	"fmt"
	"os"

	"fjacquet/txn-recon/cmd/bulk"
	"fjacquet/txn-recon/cmd/dedupe"
	"fjacquet/txn-recon/cmd/export"
	"fjacquet/txn-recon/cmd/reconcile"
	"fjacquet/txn-recon/cmd/root"
)

func init() {
	root.Cmd.AddCommand(dedupe.Cmd)
	root.Cmd.AddCommand(reconcile.Cmd)
	root.Cmd.AddCommand(bulk.Cmd)
	root.Cmd.AddCommand(export.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
