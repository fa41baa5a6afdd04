package prompt

import (
	"fmt"
	"time"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/entity"
	"ai-chat-be/pkg/llm"
)

// Builder assembles the synthesized system turn and the final message list
// for one inference call.
type Builder struct {
	persona string
}

func NewBuilder(persona string) *Builder {
	if persona == "" {
		persona = constant.DefaultPersona
	}
	return &Builder{persona: persona}
}

// SystemPrompt carries the persona, the user's name, the current time and
// whatever the speculative search pass retrieved.
func (b *Builder) SystemPrompt(username string, now time.Time, searchContext string) string {
	if searchContext == "" {
		searchContext = constant.SearchContextEmpty
	}

	return fmt.Sprintf(`Bạn là một AI assistant tích hợp với khả năng tìm kiếm thông tin chủ động.

Bạn đang hỗ trợ cho user tên: `+"`%s`"+`.
Thời điểm hiện tại: `+"`%s`"+`.

%s

Dựa trên yêu cầu của user, tôi đã chủ động tìm kiếm và thu thập được thông tin sau:
%s

Hãy sử dụng thông tin tôi vừa tìm được để trả lời câu hỏi của user một cách chính xác và đáng tin cậy.
Nếu thông tin không đủ, hãy nói rõ những gì chưa tìm thấy và đề xuất hướng tìm kiếm khác.`,
		username, now.Format("15:04:05"), b.persona, searchContext)
}

// Messages builds the ordered message list: one system turn, the budgeted
// history oldest-first, then the in-flight user prompt.
func (b *Builder) Messages(systemPrompt string, history []*entity.Turn, userPrompt string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})

	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}

	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userPrompt})
	return messages
}
