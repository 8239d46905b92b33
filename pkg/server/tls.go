package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"tork-hq/governance/pkg/config"
)

// CertReloader serves the certificate pair from disk and picks up renewed
// files without a restart.
type CertReloader struct {
	certFile string
	keyFile  string
	logger   *slog.Logger

	mu       sync.RWMutex
	cert     *tls.Certificate
	certTime time.Time
	keyTime  time.Time
}

// NewCertReloader loads the certificate pair once. An unreadable or
// expired pair is an error.
func NewCertReloader(certFile, keyFile string, logger *slog.Logger) (*CertReloader, error) {
	r := &CertReloader{certFile: certFile, keyFile: keyFile, logger: logger.With("component", "tls")}
	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Watch checks the files every interval until ctx is done and reloads them
// when either modification time moves forward. A failed reload keeps the
// previous certificate.
func (r *CertReloader) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !r.changed() {
				continue
			}
			if err := r.reload(); err != nil {
				r.logger.Error("failed to reload certificate", "error", err, "cert_file", r.certFile)
				continue
			}
			r.logger.Info("certificate reloaded", "cert_file", r.certFile, "not_after", r.notAfter())
		case <-ctx.Done():
			return
		}
	}
}

// GetCertificate implements tls.Config.GetCertificate.
func (r *CertReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert, nil
}

func (r *CertReloader) changed() bool {
	certInfo, err := os.Stat(r.certFile)
	if err != nil {
		return false
	}
	keyInfo, err := os.Stat(r.keyFile)
	if err != nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return certInfo.ModTime().After(r.certTime) || keyInfo.ModTime().After(r.keyTime)
}

func (r *CertReloader) reload() error {
	certInfo, err := os.Stat(r.certFile)
	if err != nil {
		return fmt.Errorf("certificate file: %w", err)
	}
	keyInfo, err := os.Stat(r.keyFile)
	if err != nil {
		return fmt.Errorf("key file: %w", err)
	}

	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load certificate: %w", err)
	}
	if err := checkValidity(&cert, time.Now()); err != nil {
		return err
	}

	r.mu.Lock()
	r.cert = &cert
	r.certTime = certInfo.ModTime()
	r.keyTime = keyInfo.ModTime()
	r.mu.Unlock()
	return nil
}

func (r *CertReloader) notAfter() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cert == nil || r.cert.Leaf == nil {
		return time.Time{}
	}
	return r.cert.Leaf.NotAfter
}

// checkValidity rejects a leaf certificate outside its validity window.
// It fills cert.Leaf when the loader left it empty.
func checkValidity(cert *tls.Certificate, now time.Time) error {
	if len(cert.Certificate) == 0 {
		return errors.New("certificate chain is empty")
	}
	if cert.Leaf == nil {
		leaf, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return fmt.Errorf("failed to parse certificate: %w", err)
		}
		cert.Leaf = leaf
	}
	if now.Before(cert.Leaf.NotBefore) {
		return fmt.Errorf("certificate not valid before %s", cert.Leaf.NotBefore.Format(time.RFC3339))
	}
	if now.After(cert.Leaf.NotAfter) {
		return fmt.Errorf("certificate expired at %s", cert.Leaf.NotAfter.Format(time.RFC3339))
	}
	return nil
}

// TLSConfig builds the server's tls.Config around a reloader.
func TLSConfig(cfg config.TLSConfig, r *CertReloader) *tls.Config {
	minVersion := uint16(tls.VersionTLS13)
	if cfg.MinVersion == "1.2" {
		minVersion = tls.VersionTLS12
	}
	return &tls.Config{
		MinVersion:     minVersion,
		GetCertificate: r.GetCertificate,
	}
}
