package agent

import (
	"context"
	"fmt"

	"silverland-assistant/internal/model"
)

// respondGeneric answers off-catalog questions with the guardrail prompt and
// the full conversation history. The model reply is served verbatim.
func (a *Agent) respondGeneric(ctx context.Context, st *model.AgentState) error {
	messages := make([]model.ChatMessage, 0, len(st.Messages)+1)
	messages = append(messages, model.ChatMessage{Role: model.RoleSystem, Content: guardrailSystemPrompt})
	messages = append(messages, st.Messages...)

	reply, err := a.chat.Chat(ctx, messages)
	if err != nil {
		return fmt.Errorf("generic response: %w", err)
	}

	st.AppendAssistant(reply)
	st.Stage = model.StageGeneric
	return nil
}
