package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tcdsagency/renewals-backend/internal/clients/hawksoft"
	redisclient "github.com/tcdsagency/renewals-backend/internal/clients/redis"
)

type fakeHawksoft struct {
	clients     map[int]*hawksoft.ClientDetail
	attachments map[uuid.UUID][]hawksoft.Attachment
	downloads   map[string][]byte
	downloadErr map[string]error
	listErr     error
	searchByPfx map[string][]hawksoft.ClientSummary
	searchErr   map[string]error
	tasks       []hawksoft.Task
	tasksErr    error

	getClientCalls int
}

func newFakeHawksoft() *fakeHawksoft {
	return &fakeHawksoft{
		clients:     map[int]*hawksoft.ClientDetail{},
		attachments: map[uuid.UUID][]hawksoft.Attachment{},
		downloads:   map[string][]byte{},
		downloadErr: map[string]error{},
		searchByPfx: map[string][]hawksoft.ClientSummary{},
		searchErr:   map[string]error{},
	}
}

func (f *fakeHawksoft) SearchClients(ctx context.Context, prefix string) ([]hawksoft.ClientSummary, error) {
	if err := f.searchErr[prefix]; err != nil {
		return nil, err
	}
	return f.searchByPfx[prefix], nil
}

func (f *fakeHawksoft) GetClient(ctx context.Context, clientNumber int) (*hawksoft.ClientDetail, error) {
	f.getClientCalls++
	detail, ok := f.clients[clientNumber]
	if !ok {
		return nil, fmt.Errorf("client %d not found", clientNumber)
	}
	return detail, nil
}

func (f *fakeHawksoft) ListAttachments(ctx context.Context, clientUUID uuid.UUID) ([]hawksoft.Attachment, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.attachments[clientUUID], nil
}

func (f *fakeHawksoft) DownloadAttachment(ctx context.Context, attachmentID string) ([]byte, error) {
	if err := f.downloadErr[attachmentID]; err != nil {
		return nil, err
	}
	data, ok := f.downloads[attachmentID]
	if !ok {
		return nil, fmt.Errorf("attachment %s not found", attachmentID)
	}
	return data, nil
}

func (f *fakeHawksoft) ListTasks(ctx context.Context, opts hawksoft.ListTasksOptions) ([]hawksoft.Task, error) {
	if f.tasksErr != nil {
		return nil, f.tasksErr
	}
	return f.tasks, nil
}

type fakeQueue struct {
	mu         sync.Mutex
	messages   []redisclient.ProcessMessage
	enqueueErr error
}

func (q *fakeQueue) Enqueue(ctx context.Context, msg redisclient.ProcessMessage) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages = append(q.messages, msg)
	return nil
}

func (q *fakeQueue) Dequeue(ctx context.Context, timeout time.Duration) (*redisclient.ProcessMessage, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.messages) == 0 {
		return nil, nil
	}
	msg := q.messages[0]
	q.messages = q.messages[1:]
	return &msg, nil
}

func (q *fakeQueue) Close() error { return nil }

func (q *fakeQueue) all() []redisclient.ProcessMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]redisclient.ProcessMessage, len(q.messages))
	copy(out, q.messages)
	return out
}

type fakeBucket struct {
	mu          sync.Mutex
	objects     map[string][]byte
	uploadErr   error
	downloadErr error
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}}
}

func (b *fakeBucket) UploadFile(ctx context.Context, key string, file io.Reader) error {
	if b.uploadErr != nil {
		return b.uploadErr
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return nil
}

func (b *fakeBucket) DownloadFile(ctx context.Context, key string) (io.ReadCloser, error) {
	if b.downloadErr != nil {
		return nil, b.downloadErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *fakeBucket) DeleteFile(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}
