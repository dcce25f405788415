// Package sshutil provides the SSH transport and SFTP file access used to
// keep the state snapshot on a remote host.
//
// A Client owns one SSH connection. SFTPFileSystem layers an SFTP session
// on top of it and exposes the small file API the state store needs, with
// writes made atomic through a temporary file and a POSIX rename.
//
// Authentication methods, in order of preference: private key file
// (optionally passphrase-protected), then password. Host keys are checked
// against a known_hosts file unless verification is explicitly disabled.
package sshutil
