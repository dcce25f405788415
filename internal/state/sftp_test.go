package state

import (
	"context"
	"net"
	"reflect"
	"testing"

	"github.com/pkg/sftp"

	"gitlab.bluewillows.net/root/dynv6sync/pkg/provider"
	"gitlab.bluewillows.net/root/dynv6sync/pkg/sshutil"
)

func newMemorySFTPFS(t *testing.T) *SFTPFS {
	t.Helper()

	serverConn, clientConn := net.Pipe()
	server := sftp.NewRequestServer(serverConn, sftp.InMemHandler())
	go func() { _ = server.Serve() }()

	sc, err := sftp.NewClientPipe(clientConn, clientConn)
	if err != nil {
		t.Fatalf("NewClientPipe() error = %v", err)
	}

	remote := NewSFTPFS(sshutil.NewSFTPFileSystem(nil, sshutil.WithSFTPClient(sc)))
	t.Cleanup(func() {
		_ = remote.Close()
		_ = server.Close()
	})
	return remote
}

func TestStore_SFTPSaveLoad(t *testing.T) {
	ctx := context.Background()
	store := NewStore("/srv/dynv6sync/.records", WithFileSystem(newMemorySFTPFS(t)))

	if got := store.Load(ctx); !got.IsEmpty() {
		t.Fatalf("Load() before save = %+v, want empty", got)
	}

	first := Snapshot{Zone: Zone{ID: 1, Name: "example.dynv6.net"}}
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}

	second := Snapshot{
		Zone: Zone{ID: 1, Name: "example.dynv6.net"},
		Records: []Record{
			{ID: 9, Type: provider.RecordTypeAAAA, Name: "home", Data: "2001:db8::1"},
		},
	}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	if got := store.Load(ctx); !reflect.DeepEqual(got, second) {
		t.Errorf("Load() = %+v, want %+v", got, second)
	}
}
