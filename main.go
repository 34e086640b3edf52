package main

import (
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/scrimcore/scrimcore/internal/cmd"
)

func main() {
	cmd.Execute()
}
