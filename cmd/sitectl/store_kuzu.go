//go:build cgo

package main

import "github.com/dusk-indust/pagecraft/internal/store"

func openKuzu(path string) (store.Store, error) {
	return store.NewKuzuFileStore(path)
}
