package domain

// Channel обозначает канал назначения публикации.
type Channel string

const (
	// ChannelJournal общая лента.
	ChannelJournal Channel = "journal"
	// ChannelReel короткие видео.
	ChannelReel Channel = "reel"
	// ChannelStory эфемерные истории.
	ChannelStory Channel = "story"
	// ChannelNews новостной канал.
	ChannelNews Channel = "news"
	// ChannelShop товарный канал.
	ChannelShop Channel = "shop"
)

// View описывает экран, который следует показать после операции.
type View string

const (
	ViewFeed  View = "feed"
	ViewPulse View = "pulse"
	ViewNews  View = "news"
	ViewShop  View = "shop"
)

// MediaType различает изображение и видео.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Author описывает автора контента на момент публикации.
type Author struct {
	Name     string `json:"name"`
	Handle   string `json:"handle"`
	Avatar   string `json:"avatar"`
	Verified bool   `json:"verified,omitempty"`
}

// Comment представляет комментарий под публикацией.
// Ответы не образуют дерево: ответ хранится как префикс "@handle " в тексте.
type Comment struct {
	ID      string `json:"id"`
	Handle  string `json:"handle"`
	Avatar  string `json:"avatar"`
	Text    string `json:"text"`
	Likes   int    `json:"likes"`
	Time    string `json:"time"`
	IsLiked bool   `json:"isLiked,omitempty"`
}

// ContentItem представляет единицу пользовательского контента.
// Форма сериализации совпадает с формой хранения в зеркале один к одному.
type ContentItem struct {
	ID        string    `json:"id"`
	User      Author    `json:"user"`
	Content   string    `json:"content"`
	MediaURL  string    `json:"mediaUrl"`
	MediaURLs []string  `json:"mediaUrls,omitempty"`
	MediaType MediaType `json:"mediaType"`

	Likes       int       `json:"likes"`
	Comments    int       `json:"comments"`
	CommentList []Comment `json:"commentList,omitempty"`
	IsLiked     bool      `json:"isLiked,omitempty"`

	Timestamp int64 `json:"timestamp"`

	IsNews    bool `json:"isNews,omitempty"`
	IsStory   bool `json:"isStory,omitempty"`
	IsProduct bool `json:"isProduct,omitempty"`

	Title    string `json:"title,omitempty"`
	Source   string `json:"source,omitempty"`
	Category string `json:"category,omitempty"`
	Price    string `json:"price,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// Collections содержит три параллельных коллекции контента, новые в начале.
type Collections struct {
	Posts   []ContentItem `json:"posts"`
	Reels   []ContentItem `json:"reels"`
	Stories []ContentItem `json:"stories"`
}

// NoticeKind категория уведомления.
type NoticeKind string

const (
	NoticeLike    NoticeKind = "like"
	NoticeComment NoticeKind = "comment"
	NoticeInfo    NoticeKind = "info"
)

// Notification описывает транзиентное уведомление сессии.
type Notification struct {
	ID   string     `json:"id"`
	Text string     `json:"text"`
	Time string     `json:"time"`
	Kind NoticeKind `json:"type"`
}

// Identity представляет подтверждённую личность из бэкенда аутентификации.
type Identity struct {
	ID       string
	Email    string
	Name     string
	LastName string
	Demo     bool
}

// Session хранит активную сессию пользователя.
type Session struct {
	Identity    Identity `json:"identity"`
	AccessToken string   `json:"accessToken,omitempty"`
}

// Profile содержит локально редактируемый профиль пользователя.
type Profile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Handle  string `json:"handle"`
	Avatar  string `json:"avatar_url"`
	Email   string `json:"email"`
	Tokens  int    `json:"tokens"`
	Status  string `json:"status"`
	City    string `json:"city"`
	Studies string `json:"studies"`
	Bio     string `json:"bio"`
}

// ChatMessage сообщение в диалоге мессенджера.
type ChatMessage struct {
	ID     string `json:"id"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
	Time   string `json:"time"`
	IsMe   bool   `json:"isMe"`
}

// Conversation диалог мессенджера с непрочитанным счётчиком.
type Conversation struct {
	ID          string        `json:"id"`
	User        Author        `json:"user"`
	LastMessage string        `json:"lastMessage"`
	Time        string        `json:"time"`
	UnreadCount int           `json:"unreadCount"`
	Messages    []ChatMessage `json:"messages"`
}
