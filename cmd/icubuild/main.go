package main

import "github.com/goplus/icubuild/cmd/icubuild/internal"

func main() {
	internal.Execute()
}
