package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"fastingFriendsAPI/internal/apperr"
	"fastingFriendsAPI/internal/notification"
	"fastingFriendsAPI/internal/store"
	"fastingFriendsAPI/internal/user"
)

type NotificationService struct {
	store      store.Store
	dispatcher *NotificationDispatcher
	now        func() time.Time
}

func NewNotificationService(st store.Store, dispatcher *NotificationDispatcher) *NotificationService {
	return &NotificationService{
		store:      st,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

func (s *NotificationService) SetPushProvider(provider PushNotificationProvider) {
	s.dispatcher.SetPushProvider(provider)
}

// CreateNotification stores the notification and queues a push to the
// recipient's devices when their preferences allow that type.
func (s *NotificationService) CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	if req.UserID == "" {
		return nil, apperr.Invalid("userId", "recipient is required")
	}

	notif := &notification.Notification{
		UserID:    req.UserID,
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		Data:      req.Data,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateNotification(ctx, notif); err != nil {
		return nil, apperr.Write("create notification", err)
	}

	recipient, err := s.store.GetUser(ctx, req.UserID)
	if err != nil {
		log.Printf("CreateNotification: no profile for push to %s: %v", req.UserID, err)
		return notif, nil
	}
	if recipient.NotificationPreferences.AllowsPush(req.Type) && len(recipient.DeviceTokens) > 0 {
		s.dispatcher.DispatchNotification(notif, recipient.DeviceTokens)
	}
	return notif, nil
}

func (s *NotificationService) GetNotifications(ctx context.Context, userID string) (*notification.NotificationListResponse, error) {
	list, err := s.store.ListNotifications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	unread := 0
	for _, n := range list {
		if !n.IsRead {
			unread++
		}
	}
	if list == nil {
		list = []*notification.Notification{}
	}
	return &notification.NotificationListResponse{
		Notifications: list,
		UnreadCount:   unread,
		TotalCount:    len(list),
	}, nil
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	resp, err := s.GetNotifications(ctx, userID)
	if err != nil {
		return 0, err
	}
	return resp.UnreadCount, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID, notificationID string) error {
	if err := s.store.MarkNotificationRead(ctx, userID, notificationID); err != nil {
		if apperr.IsNotFound(err) {
			return err
		}
		return apperr.Write("mark notification read", err)
	}
	return nil
}

func (s *NotificationService) RegisterDevice(ctx context.Context, userID string, req *notification.RegisterDeviceRequest) error {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return apperr.Invalid("token", "device token is required")
	}
	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	switch platform {
	case "ios", "android", "web":
	default:
		return apperr.Invalid("platform", "platform must be ios, android or web")
	}
	if err := s.store.AddDeviceToken(ctx, userID, notification.DeviceToken{Token: token, Platform: platform}); err != nil {
		if apperr.IsNotFound(err) {
			return err
		}
		return apperr.Write("register device", err)
	}
	return nil
}

func (s *NotificationService) UpdatePreferences(ctx context.Context, userID string, prefs *user.NotificationPreferences) (*user.NotificationPreferences, error) {
	p, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.NotificationPreferences = *prefs
	p.LastActive = s.now()
	if err := s.store.SaveUser(ctx, p); err != nil {
		return nil, apperr.Write("update notification preferences", err)
	}
	return &p.NotificationPreferences, nil
}
