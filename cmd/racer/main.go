package main

import "github.com/zeebo/racer/internal/cli"

func main() { cli.Main() }
