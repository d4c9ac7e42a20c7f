package dispatcher

import "github.com/nabbar/secop/internal/secoperr"

func noSuchModule(name string) secoperr.Error {
	return secoperr.NoSuchModule(name)
}

func alreadyActivating() secoperr.Error {
	return secoperr.Protocol("already activating")
}
