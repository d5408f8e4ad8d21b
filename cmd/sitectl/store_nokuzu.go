//go:build !cgo

package main

import (
	"fmt"

	"github.com/dusk-indust/pagecraft/internal/store"
)

func openKuzu(string) (store.Store, error) {
	return nil, fmt.Errorf("the kuzu backend requires a cgo build")
}
