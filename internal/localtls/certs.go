package localtls

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pykit/internal/logging"
)

const keySize = 2048

// Manager owns the certificate cache for one directory.
type Manager struct {
	certDir    string
	commonName string
	validDays  int
	logger     *slog.Logger
}

// NewManager builds a certificate manager. commonName defaults to localhost
// and validDays to ten years when unset.
func NewManager(certDir, commonName string, validDays int, logger *slog.Logger) *Manager {
	if strings.TrimSpace(commonName) == "" {
		commonName = "localhost"
	}
	if validDays <= 0 {
		validDays = 3650
	}
	return &Manager{
		certDir:    certDir,
		commonName: commonName,
		validDays:  validDays,
		logger:     logging.NewComponentLogger(logger, "localtls"),
	}
}

// KeyPath returns the PEM private key location.
func (m *Manager) KeyPath() string {
	return filepath.Join(m.certDir, m.commonName+".key.pem")
}

// CertPath returns the PEM certificate location.
func (m *Manager) CertPath() string {
	return filepath.Join(m.certDir, m.commonName+".cert.pem")
}

// EnsureCertificate generates a key pair when the cached one is missing.
func (m *Manager) EnsureCertificate() error {
	if m.haveCachedPair() {
		return nil
	}
	return m.Generate()
}

func (m *Manager) haveCachedPair() bool {
	if _, err := os.Stat(m.KeyPath()); err != nil {
		return false
	}
	if _, err := os.Stat(m.CertPath()); err != nil {
		return false
	}
	return true
}

// Generate writes a fresh self-signed certificate and key, replacing any
// cached pair.
func (m *Manager) Generate() error {
	if err := os.MkdirAll(m.certDir, 0o755); err != nil {
		return fmt.Errorf("create certificate directory: %w", err)
	}

	key, err := rsa.GenerateKey(rand.Reader, keySize)
	if err != nil {
		return fmt.Errorf("generate private key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("generate serial number: %w", err)
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   m.commonName,
			Organization: []string{"Local Development"},
		},
		NotBefore:             now,
		NotAfter:              now.AddDate(0, 0, m.validDays),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{m.commonName},
	}
	if ip := net.ParseIP(m.commonName); ip != nil {
		template.DNSNames = nil
		template.IPAddresses = []net.IP{ip}
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}

	keyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	if err := os.WriteFile(m.KeyPath(), keyPEM, 0o600); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	if err := os.WriteFile(m.CertPath(), certPEM, 0o644); err != nil {
		return fmt.Errorf("write certificate: %w", err)
	}

	m.logger.Info("generated certificate",
		logging.String("common_name", m.commonName),
		logging.String("cert", m.CertPath()),
	)
	return nil
}

// TLSConfig loads (generating if needed) the cached pair as a server
// tls.Config.
func (m *Manager) TLSConfig() (*tls.Config, error) {
	if err := m.EnsureCertificate(); err != nil {
		return nil, err
	}
	pair, err := tls.LoadX509KeyPair(m.CertPath(), m.KeyPath())
	if err != nil {
		return nil, fmt.Errorf("load certificate pair: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{pair},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
