package assoofs

import "github.com/sirupsen/logrus"

// Option configures a Filesystem at Mount time: one field set per option,
// no builder chaining beyond functional composition.
type Option func(*Filesystem) error

// WithLogger overrides the *logrus.Entry a Filesystem logs through. The
// default, set in Mount, logs to logrus.StandardLogger() with a "component"
// field of "assoofs".
func WithLogger(log *logrus.Entry) Option {
	return func(fs *Filesystem) error {
		fs.log = log
		return nil
	}
}

// WithReadOnly mounts the image without allowing Create, Mkdir, or Write to
// succeed; Lookup, Readdir, Getattr, and Read are unaffected. There is no
// on-disk flag for this — it's a host-side restriction Filesystem checks
// under the write lock, before mutating anything.
func WithReadOnly(ro bool) Option {
	return func(fs *Filesystem) error {
		fs.readOnly = ro
		return nil
	}
}
