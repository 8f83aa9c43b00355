package interview

import (
	"fmt"
	"strings"

	"quali-backend/internal/cvminute"
)

// QA pairs one answered question with its response, in interview order.
type QA struct {
	Question string
	Answer   string
}

const interviewerSystemPrompt = `Tu es un coach carrière qui mène un entretien de qualification professionnelle.
Tu poses une seule question à la fois sur l'expérience décrite, concrète et ouverte,
pour faire émerger les réalisations, le contexte et les compétences du candidat.
Réponds UNIQUEMENT avec un objet JSON: {"question": "..."}`

func questionUserPrompt(exp cvminute.Experience, prior []QA) string {
	var b strings.Builder
	writeExperience(&b, exp)
	if len(prior) == 0 {
		b.WriteString("\nPose la première question sur cette expérience.\n")
	} else {
		b.WriteString("\nÉchanges précédents sur cette expérience:\n")
		for i, qa := range prior {
			fmt.Fprintf(&b, "Q%d: %s\nR%d: %s\n", i+1, qa.Question, i+1, qa.Answer)
		}
		b.WriteString("\nPose la question suivante, sans répéter les précédentes.\n")
	}
	return b.String()
}

const synthesisSystemPrompt = `Tu es un rédacteur RH. À partir d'une expérience professionnelle et des
réponses d'entretien du candidat, rédige un paragraphe de synthèse valorisant
(faits, résultats, périmètre) et liste les compétences démontrées.
Réponds UNIQUEMENT avec un objet JSON: {"resume": "...", "competences": ["..."]}`

func synthesisUserPrompt(exp cvminute.Experience, pairs []QA) string {
	var b strings.Builder
	writeExperience(&b, exp)
	b.WriteString("\nEntretien:\n")
	for i, qa := range pairs {
		fmt.Fprintf(&b, "Q%d: %s\nR%d: %s\n", i+1, qa.Question, i+1, qa.Answer)
	}
	return b.String()
}

const chatSystemPrompt = `Tu es un coach carrière. Tu disposes des synthèses d'expériences du candidat
ci-dessous et de l'historique de conversation. Réponds à son message de façon
utile et concise. Réponds UNIQUEMENT avec un objet JSON: {"response": "..."}`

func chatUserPrompt(syntheses []Synthesis, history []ChatMessage, message string) string {
	var b strings.Builder
	b.WriteString("Synthèses d'expériences:\n")
	for i, s := range syntheses {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s.Content)
	}
	if len(history) > 0 {
		b.WriteString("\nConversation:\n")
		for _, msg := range history {
			fmt.Fprintf(&b, "[%s] %s\n", msg.Role, msg.Content)
		}
	}
	fmt.Fprintf(&b, "\nMessage du candidat: %s\n", message)
	return b.String()
}

func writeExperience(b *strings.Builder, exp cvminute.Experience) {
	fmt.Fprintf(b, "Expérience: %s", exp.Title)
	if exp.Company != "" {
		fmt.Fprintf(b, " chez %s", exp.Company)
	}
	if exp.DateRange != "" {
		fmt.Fprintf(b, " (%s)", exp.DateRange)
	}
	b.WriteString("\n")
	if exp.Content != "" {
		fmt.Fprintf(b, "Description: %s\n", exp.Content)
	}
}
