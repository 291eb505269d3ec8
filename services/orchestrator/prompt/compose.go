// Package prompt composes the message list sent to the model. Composition is
// deterministic: one system message carrying the base instruction plus
// intent-specific rules, then labelled context blocks, then sanitized
// history, then the live query. Every block is capped so a hostile or
// oversized input cannot blow up the prompt.
package prompt

import (
	"fmt"
	"strings"

	"github.com/satpathiprabhat/banking-ai-chatbot/services/orchestrator/datatypes"
	"github.com/satpathiprabhat/banking-ai-chatbot/services/policy"
)

// SystemInstruction is the base system message for every request.
const SystemInstruction = `You are a secure internal banking assistant.
You must ALWAYS:
- Protect customer privacy. NEVER reveal, request, or infer PII (account numbers, card numbers, CVV, OTP, PAN, IFSC, UPI, Aadhaar, phone, email).
- Follow least-privilege: use only the masked context provided; do not assume hidden data.
- Be formal, precise, concise, and action-oriented. Prefer stepwise troubleshooting checklists.
- If the user shares possible PII, warn once and refuse to process it.

Critical anti-hallucination rules:
- Do NOT invent balances, fees, rates, limits, or policy details.
- Do NOT claim the customer account is locked/blocked or credentials are wrong UNLESS:
  (a) the user explicitly said so in this conversation, OR
  (b) the provided masked context explicitly confirms it (e.g., netbanking_status='LOCKED').
- If information is missing from the provided context, say you don’t know and propose the safest next step.

Domain scope:
- Banking troubleshooting (NetBanking/Mobile), generic product/FAQ guidance.
- Compliance with bank security policy at all times.
`

// Intent-specific rule blocks appended to the system message.
const (
	knowledgeRule = "For this request, you MUST answer ONLY using the 'Knowledge Context' provided below. " +
		"If the Knowledge Context does not contain the answer, reply exactly once: " +
		"\"I don’t have enough information from the bank’s knowledge base to answer that.\" " +
		"Then suggest a safe next step. Do NOT use outside knowledge; do NOT guess."

	featureRule = "This is a post-login feature issue. Blend the following sources in order:\n" +
		"1) Masked CBS Context → treat as ground truth facts.\n" +
		"2) Knowledge Context (if present) → use for troubleshooting steps and safe procedures.\n" +
		"Rules: Do NOT assert lock/blocked/credential errors unless explicitly confirmed. " +
		"If facts are insufficient, ask for non-PII clarifications and propose safe next steps."

	loginRule = "This is an authentication/access issue. If the Masked CBS Context indicates LOCKED or FAILED_OTP, " +
		"explain unblocking steps safely; otherwise ask for non-PII clarifications."
)

// Composition caps.
const (
	maxContextJSONChars = 1200
	maxRAGChunks        = 3
	maxRAGChunkChars    = 800
	maxRAGBlockChars    = 1800
	maxHistoryTurns     = 8
	maxHistoryTurnChars = 800
)

// noKnowledgeContext is the block injected when the knowledge path retrieved
// nothing, forcing the model to admit the gap instead of improvising.
const noKnowledgeContext = "Knowledge Context: [NONE]\n" +
	"You must state that you don’t have enough information from the bank’s knowledge base to answer."

// Compose builds the full message list for one request. The inputs are
// assumed already sanitized and masked; Compose only orders and caps them.
func Compose(
	query string,
	maskedCtx policy.MaskedContext,
	history []datatypes.Message,
	intent policy.Intent,
	retrieved []datatypes.RetrievedChunk,
) []datatypes.Message {
	messages := make([]datatypes.Message, 0, len(history)+5)

	var dynRules []string
	switch intent {
	case policy.IntentKnowledge:
		dynRules = append(dynRules, knowledgeRule)
	case policy.IntentFeature:
		dynRules = append(dynRules, featureRule)
	case policy.IntentLogin:
		dynRules = append(dynRules, loginRule)
	}

	sysContent := SystemInstruction
	if len(dynRules) > 0 {
		sysContent += "\n\nContext-specific rules:\n- " + strings.Join(dynRules, "\n- ")
	}
	messages = append(messages, datatypes.Message{Role: datatypes.RoleSystem, Content: sysContent})

	if len(maskedCtx) > 0 {
		messages = append(messages, datatypes.Message{
			Role:    datatypes.RoleUser,
			Content: "Masked CBS Context (non-PII JSON): " + maskedCtx.CompactJSON(maxContextJSONChars),
		})
	}

	ragBlock := formatRAGContext(retrieved)
	switch intent {
	case policy.IntentKnowledge:
		if ragBlock != "" {
			messages = append(messages, datatypes.Message{
				Role:    datatypes.RoleUser,
				Content: "Knowledge Context (use ONLY this context to answer):\n" + ragBlock,
			})
		} else {
			messages = append(messages, datatypes.Message{
				Role:    datatypes.RoleUser,
				Content: noKnowledgeContext,
			})
		}
	case policy.IntentFeature:
		if ragBlock != "" {
			messages = append(messages, datatypes.Message{
				Role:    datatypes.RoleUser,
				Content: "Knowledge Context (troubleshooting procedures):\n" + ragBlock,
			})
		}
	default:
		if ragBlock != "" {
			messages = append(messages, datatypes.Message{
				Role:    datatypes.RoleUser,
				Content: "Knowledge Context (reference if relevant):\n" + ragBlock,
			})
		}
	}

	messages = append(messages, carryHistory(history)...)
	messages = append(messages, datatypes.Message{
		Role:    datatypes.RoleUser,
		Content: strings.TrimSpace(query),
	})
	return messages
}

// formatRAGContext renders retrieved chunks as "- [source] text" lines, at
// most maxRAGChunks of them, each capped at maxRAGChunkChars, with the whole
// block capped at maxRAGBlockChars.
func formatRAGContext(retrieved []datatypes.RetrievedChunk) string {
	if len(retrieved) == 0 {
		return ""
	}
	var lines []string
	for i, r := range retrieved {
		if i >= maxRAGChunks {
			break
		}
		src := r.Source
		if src == "" {
			src = fmt.Sprintf("doc#%d", i+1)
		}
		txt := strings.ReplaceAll(strings.TrimSpace(r.Doc), "\r\n", "\n")
		if txt == "" {
			continue
		}
		if len(txt) > maxRAGChunkChars {
			txt = txt[:maxRAGChunkChars] + " ..."
		}
		lines = append(lines, fmt.Sprintf("- [%s] %s", src, txt))
	}
	block := strings.Join(lines, "\n")
	if len(block) > maxRAGBlockChars {
		block = block[:maxRAGBlockChars]
	}
	return block
}

// carryHistory keeps the last maxHistoryTurns non-empty turns, each capped
// at maxHistoryTurnChars.
func carryHistory(history []datatypes.Message) []datatypes.Message {
	if len(history) == 0 {
		return nil
	}
	trimmed := history
	if len(trimmed) > maxHistoryTurns {
		trimmed = trimmed[len(trimmed)-maxHistoryTurns:]
	}
	out := make([]datatypes.Message, 0, len(trimmed))
	for _, m := range trimmed {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if role == "" {
			role = datatypes.RoleUser
		}
		if len(content) > maxHistoryTurnChars {
			content = content[:maxHistoryTurnChars] + " ..."
		}
		out = append(out, datatypes.Message{Role: role, Content: content})
	}
	return out
}
