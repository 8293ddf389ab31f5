// Package main writes a self-signed server certificate and key for running
// the chat server with -tls-cert and -tls-key.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atinyakov/GophChat/internal/certgen"
)

func main() {
	dir := flag.String("dir", "certs", "output directory")
	hosts := flag.String("hosts", "localhost,127.0.0.1", "comma-separated DNS names and IPs")
	validFor := flag.Duration("valid-for", 365*24*time.Hour, "certificate lifetime")
	flag.Parse()

	certPath, keyPath, err := certgen.WriteServerFiles(*dir, splitHosts(*hosts), *validFor)
	if err != nil {
		fmt.Fprintln(os.Stderr, "certgen:", err)
		os.Exit(1)
	}

	fmt.Printf("Certificate: %s\nKey:         %s\n", certPath, keyPath)
}

func splitHosts(raw string) []string {
	var hosts []string
	for _, h := range strings.Split(raw, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}
