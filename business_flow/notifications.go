package businessflow

import "fmt"

// Email composition for moderation outcomes. Plain HTML strings, no
// template engine; the frontend branding lives in the surrounding portal.

type emailMessage struct {
	Subject string
	Body    string
}

func approvedEmail(tradeName string) emailMessage {
	return emailMessage{
		Subject: "Cadastro aprovado - Meide Saquá",
		Body: fmt.Sprintf(
			"<p>Olá!</p><p>O cadastro do estabelecimento <strong>%s</strong> foi aprovado e já está visível no portal Meide Saquá.</p>",
			tradeName),
	}
}

func updateApprovedEmail(tradeName string) emailMessage {
	return emailMessage{
		Subject: "Atualização aprovada - Meide Saquá",
		Body: fmt.Sprintf(
			"<p>Olá!</p><p>A atualização solicitada para <strong>%s</strong> foi aprovada e as novas informações já estão publicadas.</p>",
			tradeName),
	}
}

func removedEmail(tradeName string) emailMessage {
	return emailMessage{
		Subject: "Estabelecimento removido - Meide Saquá",
		Body: fmt.Sprintf(
			"<p>Olá!</p><p>Conforme solicitado, o estabelecimento <strong>%s</strong> foi removido do portal Meide Saquá.</p>",
			tradeName),
	}
}

func signupRejectedEmail(tradeName, reason string) emailMessage {
	return emailMessage{
		Subject: "Cadastro não aprovado - Meide Saquá",
		Body: fmt.Sprintf(
			"<p>Olá!</p><p>O cadastro do estabelecimento <strong>%s</strong> não foi aprovado.</p>%s",
			tradeName, reasonParagraph(reason)),
	}
}

func updateRejectedEmail(tradeName, reason string) emailMessage {
	return emailMessage{
		Subject: "Atualização não aprovada - Meide Saquá",
		Body: fmt.Sprintf(
			"<p>Olá!</p><p>A atualização solicitada para <strong>%s</strong> não foi aprovada. O cadastro atual permanece publicado.</p>%s",
			tradeName, reasonParagraph(reason)),
	}
}

func deletionRejectedEmail(tradeName, reason string) emailMessage {
	return emailMessage{
		Subject: "Exclusão não aprovada - Meide Saquá",
		Body: fmt.Sprintf(
			"<p>Olá!</p><p>A solicitação de exclusão de <strong>%s</strong> não foi aprovada. O cadastro permanece publicado.</p>%s",
			tradeName, reasonParagraph(reason)),
	}
}

func reasonParagraph(reason string) string {
	if reason == "" {
		return ""
	}
	return fmt.Sprintf("<p>Motivo: %s</p>", reason)
}
