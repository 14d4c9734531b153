package services

import (
	"context"
	"log"
	"sync"
	"time"

	"fastingFriendsAPI/internal/notification"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

// NotificationDispatcher pushes stored notifications to devices from a small
// worker pool so request handlers never wait on FCM.
type NotificationDispatcher struct {
	mu           sync.RWMutex
	pushProvider PushNotificationProvider
	workers      int
	jobQueue     chan *DispatchJob
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

type DispatchJob struct {
	Notification *notification.Notification
	Tokens       []notification.DeviceToken
}

func NewNotificationDispatcher(workers, queueSize int) *NotificationDispatcher {
	if workers <= 0 {
		workers = 5
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	d := &NotificationDispatcher{
		workers:  workers,
		jobQueue: make(chan *DispatchJob, queueSize),
		stopChan: make(chan struct{}),
	}
	d.startWorkers()
	return d
}

// Allow injecting the real FCM provider from main.go
func (d *NotificationDispatcher) SetPushProvider(provider PushNotificationProvider) {
	d.mu.Lock()
	d.pushProvider = provider
	d.mu.Unlock()
}

func (d *NotificationDispatcher) provider() PushNotificationProvider {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pushProvider
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

func (d *NotificationDispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.jobQueue:
			d.processJob(job)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(job *DispatchJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notif := job.Notification
	provider := d.provider()
	if provider == nil || len(job.Tokens) == 0 {
		log.Printf("Skipping push: Tokens=%d, ProviderSet=%v", len(job.Tokens), provider != nil)
		notificationsDispatched.WithLabelValues("skipped").Inc()
		return
	}

	if err := provider.SendPush(ctx, job.Tokens, notif.Title, notif.Message, notif.Data); err != nil {
		log.Printf("Push failed for user %s: %v", notif.UserID, err)
		notificationsDispatched.WithLabelValues("failed").Inc()
		return
	}
	notificationsDispatched.WithLabelValues("sent").Inc()
}

// DispatchNotification queues a push. It gives up after a short wait when the
// queue is full; the notification itself is already stored.
func (d *NotificationDispatcher) DispatchNotification(notif *notification.Notification, tokens []notification.DeviceToken) {
	job := &DispatchJob{Notification: notif, Tokens: tokens}

	select {
	case d.jobQueue <- job:
	case <-d.stopChan:
		log.Printf("Dropping notification %s: dispatcher stopped", notif.ID)
	case <-time.After(5 * time.Second):
		log.Printf("Failed to queue notification %s: queue full", notif.ID)
		notificationsDispatched.WithLabelValues("dropped").Inc()
	}
}

// Stop the dispatcher gracefully
func (d *NotificationDispatcher) Stop() {
	d.stopOnce.Do(func() {
		log.Println("Stopping notification dispatcher...")
		close(d.stopChan)
		d.wg.Wait()
		log.Println("Notification dispatcher stopped")
	})
}

// LogPushProvider stands in for FCM when no credentials are configured.
type LogPushProvider struct{}

func (LogPushProvider) SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error {
	log.Printf("PUSH (log only): Sending to %d devices: %s - %s", len(tokens), title, body)
	return nil
}
