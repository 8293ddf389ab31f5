package certgen

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseCert(t *testing.T, certPEM []byte) *x509.Certificate {
	t.Helper()
	block, _ := pem.Decode(certPEM)
	require.NotNil(t, block)
	require.Equal(t, "CERTIFICATE", block.Type)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)
	return cert
}

func TestGenerateServerCertificate(t *testing.T) {
	certPEM, keyPEM, err := GenerateServerCertificate([]string{"localhost", "127.0.0.1"}, 24*time.Hour)
	require.NoError(t, err)

	cert := parseCert(t, certPEM)
	assert.Equal(t, "localhost", cert.Subject.CommonName)
	assert.Equal(t, []string{"localhost"}, cert.DNSNames)
	require.Len(t, cert.IPAddresses, 1)
	assert.True(t, cert.IPAddresses[0].Equal(net.ParseIP("127.0.0.1")))
	assert.Contains(t, cert.ExtKeyUsage, x509.ExtKeyUsageServerAuth)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), cert.NotAfter, time.Minute)

	// self-signed leaf: signed by its own key but not a CA
	require.NoError(t, cert.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature))
	assert.False(t, cert.IsCA)

	// usable by net/http
	_, err = tls.X509KeyPair(certPEM, keyPEM)
	require.NoError(t, err)
}

func TestGenerateServerCertificate_VerifiesForHost(t *testing.T) {
	certPEM, _, err := GenerateServerCertificate([]string{"chat.local"}, time.Hour)
	require.NoError(t, err)

	cert := parseCert(t, certPEM)
	assert.NoError(t, cert.VerifyHostname("chat.local"))
	assert.Error(t, cert.VerifyHostname("other.local"))
}

func TestGenerateServerCertificate_NoHosts(t *testing.T) {
	_, _, err := GenerateServerCertificate(nil, time.Hour)
	assert.Error(t, err)
}

func TestWriteServerFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")

	certPath, keyPath, err := WriteServerFiles(dir, []string{"localhost"}, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, CertFile), certPath)
	assert.Equal(t, filepath.Join(dir, KeyFile), keyPath)

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = tls.LoadX509KeyPair(certPath, keyPath)
	assert.NoError(t, err)
}
