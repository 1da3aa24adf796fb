package memory

import "github.com/ballastio/ballast/pkg/adapter"

func init() {
	adapter.Register(FormatName, func(options map[string]string) (adapter.Adapter, error) {
		return New(options)
	})
}
