package app

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	log "github.com/sirupsen/logrus"

	"github.com/antaressimulatorteam/antares-web-installer/installer/internal/installerr"
)

// lockPath returns the lock file guarding targetDir. It lives outside the
// target so that a fresh installation still sees an empty directory.
func lockPath(targetDir string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(targetDir)))
	return filepath.Join(os.TempDir(), "antares-web-installer-"+hex.EncodeToString(sum[:8])+".lock")
}

// acquireLock takes the installation lock of targetDir without blocking.
func acquireLock(targetDir string) (*flock.Flock, error) {
	lock := flock.New(lockPath(targetDir))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, installerr.New(installerr.KindLocked, err, "cannot lock %s: %v", lock.Path(), err)
	}
	if !locked {
		return nil, installerr.New(installerr.KindLocked, nil, "another installation into %s is in progress", targetDir)
	}
	log.Debugf("installation lock acquired: %s", lock.Path())
	return lock, nil
}

func releaseLock(lock *flock.Flock) {
	if err := lock.Unlock(); err != nil {
		log.Warnf("failed to release installation lock: %v", err)
	}
}
