package friendship

import "time"

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

type Friendship struct {
	ID          string           `json:"id" firestore:"-" db:"id"`
	User1ID     string           `json:"user1Id" firestore:"user1Id" db:"user1_id"`
	User2ID     string           `json:"user2Id" firestore:"user2Id" db:"user2_id"`
	Status      FriendshipStatus `json:"status" firestore:"status" db:"status"`
	InitiatedBy string           `json:"initiatedBy" firestore:"initiatedBy" db:"initiated_by"`
	CreatedAt   time.Time        `json:"createdAt" firestore:"createdAt" db:"created_at"`
	UpdatedAt   time.Time        `json:"updatedAt" firestore:"updatedAt" db:"updated_at"`
}

// Other returns the id of the party that is not userID.
func (f *Friendship) Other(userID string) string {
	if f.User1ID == userID {
		return f.User2ID
	}
	return f.User1ID
}

func (f *Friendship) Involves(userID string) bool {
	return f.User1ID == userID || f.User2ID == userID
}

type FriendRequest struct {
	FriendID string `json:"friendId"`
}

type Friend struct {
	UserID      string           `json:"userId"`
	DisplayName string           `json:"displayName"`
	PhotoURL    string           `json:"photoURL"`
	Status      FriendshipStatus `json:"status"`
	Since       time.Time        `json:"since"`
}

type LeaderboardEntry struct {
	UserID            string `json:"userId"`
	DisplayName       string `json:"displayName"`
	CompletedThisWeek int    `json:"completedThisWeek"`
	Rank              int    `json:"rank"`
}

type Leaderboard struct {
	Entries      []*LeaderboardEntry `json:"entries"`
	UserPosition *LeaderboardEntry   `json:"userPosition"`
	TotalUsers   int                 `json:"totalUsers"`
}
