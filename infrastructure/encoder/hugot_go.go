//go:build !ORT

package encoder

import "github.com/knights-analytics/hugot"

func newHugotSession(_ string) (*hugot.Session, error) {
	return hugot.NewGoSession()
}
