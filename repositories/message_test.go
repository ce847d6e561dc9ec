package repositories

import (
	"chat-sync/domain"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_Record_Multiple_Message(t *testing.T) {
	req := require.New(t)
	repository, err := NewMessageRepository(openBadger(t), slog.Default())
	req.NoError(err)
	defer repository.Close()

	at := time.Now().UTC()
	for i, author := range []string{"Alice", "Bob", "Clara"} {
		_, err = repository.StoreMessage(int64(i+1), author, "hello from "+author, at.Add(time.Duration(i)*time.Minute))
		req.NoError(err)
	}

	messages, total, err := repository.GetMessages(domain.DefaultWindow())

	req.NoError(err)
	req.Equal(3, total)
	req.Len(messages, 3)
	req.Equal([]string{"Alice", "Bob", "Clara"}, []string{messages[0].Author, messages[1].Author, messages[2].Author})
	req.Equal(int64(1), messages[0].ID)
}

func Test_Record_Multiple_Message_And_Window(t *testing.T) {
	req := require.New(t)
	repository, err := NewMessageRepository(openBadger(t), slog.Default())
	req.NoError(err)
	defer repository.Close()

	at := time.Now().UTC()
	for i := 0; i < 5; i++ {
		_, err = repository.StoreMessage(1, "Alice", "message", at.Add(time.Duration(i)*time.Second))
		req.NoError(err)
	}

	messages, total, err := repository.GetMessages(domain.Window{Limit: 2, Offset: 1})

	req.NoError(err)
	req.Equal(5, total)
	req.Len(messages, 2)
	req.Equal(int64(2), messages[0].ID)
	req.Equal(int64(3), messages[1].ID)
}

func Test_Messages_Ordered_By_Creation_Time(t *testing.T) {
	req := require.New(t)
	repository, err := NewMessageRepository(openBadger(t), slog.Default())
	req.NoError(err)
	defer repository.Close()

	at := time.Now().UTC()
	_, err = repository.StoreMessage(1, "Alice", "late", at.Add(time.Minute))
	req.NoError(err)
	_, err = repository.StoreMessage(1, "Alice", "early", at)
	req.NoError(err)

	messages, _, err := repository.GetMessages(domain.DefaultWindow())

	req.NoError(err)
	req.Equal("early", messages[0].Text)
	req.Equal("late", messages[1].Text)
}
