package dispatch

import "github.com/gdrelay/gdrelay/internal/httpsession"

func nopSession() *httpsession.Session {
	return httpsession.NewSession(nil)
}
