package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

// SSHClient runs remote commands and streams files for libraries that live
// on another machine (a NAS, typically).
type SSHClient struct {
	sshClient *ssh.Client
	host      string
}

// parseRemoteRoot splits a user@host:/path library root into the SSH host
// part and the remote directory. ok is false for plain local paths.
func parseRemoteRoot(root string) (host, dir string, ok bool) {
	at := strings.Index(root, "@")
	colon := strings.Index(root, ":")
	if at <= 0 || colon <= at {
		return "", "", false
	}
	return root[:colon], root[colon+1:], true
}

// NewSSHClient connects to a host given as "user@host" or "user@host:port".
func NewSSHClient(host string) (*SSHClient, error) {
	keyAuth := publicKeyAuth()
	if keyAuth == nil {
		return nil, fmt.Errorf("no SSH keys found in ~/.ssh")
	}

	config := &ssh.ClientConfig{
		User:            parseUsername(host),
		Auth:            []ssh.AuthMethod{keyAuth},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	client, err := ssh.Dial("tcp", parseHostAddr(host), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", host, err)
	}

	return &SSHClient{
		sshClient: client,
		host:      host,
	}, nil
}

// Close closes the SSH connection.
func (c *SSHClient) Close() error {
	if c.sshClient != nil {
		return c.sshClient.Close()
	}
	return nil
}

// ListFiles returns every regular file under a remote directory.
func (c *SSHClient) ListFiles(dir string) ([]string, error) {
	cmd := fmt.Sprintf("find %s -type f", shellescape(dir))

	session, err := c.sshClient.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	output, err := session.Output(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to list remote files: %w", err)
	}

	var files []string
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}

	return files, nil
}

// DownloadFile streams a remote file to a local path using cat over SSH.
func (c *SSHClient) DownloadFile(remotePath, localPath string) error {
	cmd := fmt.Sprintf("cat %s", shellescape(remotePath))

	session, err := c.sshClient.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	localFile, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}
	defer localFile.Close()

	session.Stdout = localFile
	if err := session.Run(cmd); err != nil {
		return fmt.Errorf("failed to download %s: %w", remotePath, err)
	}

	return localFile.Sync()
}

// UploadFile streams a local file to a remote path using cat over SSH.
func (c *SSHClient) UploadFile(localPath, remotePath string) error {
	localFile, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open local file: %w", err)
	}
	defer localFile.Close()

	cmd := fmt.Sprintf("cat > %s", shellescape(remotePath))

	session, err := c.sshClient.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	session.Stdin = localFile
	if err := session.Run(cmd); err != nil {
		return fmt.Errorf("failed to upload %s: %w", remotePath, err)
	}

	return nil
}

// parseUsername extracts the username from a host string.
func parseUsername(host string) string {
	if i := strings.Index(host, "@"); i >= 0 {
		return host[:i]
	}
	return os.Getenv("USER")
}

// parseHostAddr extracts host:port from a host string, defaulting to port 22.
func parseHostAddr(host string) string {
	hostPart := host
	if i := strings.Index(host, "@"); i >= 0 {
		hostPart = host[i+1:]
	}

	if !strings.Contains(hostPart, ":") {
		return hostPart + ":22"
	}
	return hostPart
}

// publicKeyAuth loads SSH keys from standard locations.
func publicKeyAuth() ssh.AuthMethod {
	keyPaths := []string{
		filepath.Join(os.Getenv("HOME"), ".ssh", "id_ed25519"),
		filepath.Join(os.Getenv("HOME"), ".ssh", "id_rsa"),
	}

	var signers []ssh.Signer
	for _, keyPath := range keyPaths {
		key, err := os.ReadFile(keyPath)
		if err != nil {
			continue
		}

		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			continue
		}

		signers = append(signers, signer)
	}

	if len(signers) == 0 {
		log.Println("Warning: No SSH keys found")
		return nil
	}

	return ssh.PublicKeys(signers...)
}

// shellescape escapes a string for safe use in shell commands.
func shellescape(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}
