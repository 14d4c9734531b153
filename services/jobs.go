package services

import (
	"context"
	"log"
	"time"

	"fastingFriendsAPI/internal/workers"
)

// StartJobs schedules the fast auto-end sweep and the challenge expiry sweep.
func StartJobs(ctx context.Context, g *workers.Group, fasts *FastingService, challenges *ChallengeService, autoEndEvery, expiryEvery time.Duration) {
	g.Every(ctx, "auto-end-fasts", autoEndEvery, func(ctx context.Context) {
		if _, err := fasts.AutoEndDue(ctx); err != nil {
			log.Printf("Job auto-end-fasts: %v", err)
			jobRuns.WithLabelValues("auto-end-fasts", "error").Inc()
			return
		}
		jobRuns.WithLabelValues("auto-end-fasts", "ok").Inc()
	})

	g.Every(ctx, "expire-challenges", expiryEvery, func(ctx context.Context) {
		if _, err := challenges.ExpireChallenges(ctx); err != nil {
			log.Printf("Job expire-challenges: %v", err)
			jobRuns.WithLabelValues("expire-challenges", "error").Inc()
			return
		}
		jobRuns.WithLabelValues("expire-challenges", "ok").Inc()
	})
}
