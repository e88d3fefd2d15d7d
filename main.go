// Public domain.

package main

import "github.com/pars-astro/pars/internal/parsprog"

func main() {
	parsprog.Main()
}
