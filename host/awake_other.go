//go:build !windows

package host

func setAwake(bool) error {
	return ErrUnsupported
}
