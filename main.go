/*
Copyright © 2026 JACOB ARTHURS
*/
package main

import "github.com/jacobarthurs/plantree/cmd"

func main() {
	cmd.Execute()
}
