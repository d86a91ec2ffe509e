package gemini

import (
	"fmt"
	"strings"

	"github.com/lancecerto/lancecerto/internal/domain"
)

// BuildProposalPrompt constructs the prompt for proposal generation.
// The old-proposals block is included only when the user supplied style
// reference material.
func BuildProposalPrompt(profile, oldProposals, jobDescription string) string {
	var b strings.Builder

	b.WriteString(`Você é um assistente especializado em gerar propostas comerciais de freelancers.
Com base nas informações abaixo, escreva uma proposta clara, persuasiva e profissional.

Perfil do freelancer:
`)
	b.WriteString(profile)
	b.WriteString("\n\n")

	if oldProposals != "" {
		b.WriteString("Estilo (propostas antigas do usuário):\n")
		b.WriteString(oldProposals)
		b.WriteString("\n\n")
	}

	b.WriteString("Descrição do job:\n")
	b.WriteString(jobDescription)
	b.WriteString(`

Crie uma proposta que:

- Mostre empatia com o cliente
- Destaque as habilidades do freelancer de forma natural
- Seja curta, impactante e sem floreios
- Termine com uma chamada para ação (CTA)

Formato final:

- Saudação personalizada
- 2 parágrafos de apresentação
- 1 parágrafo explicando como o freelancer resolverá o problema
- Encerramento com frase de impacto e CTA ("Vamos conversar?", "Podemos começar ainda hoje?", etc.)`)

	return b.String()
}

// BuildProjectPlanPrompt constructs the prompt for the premium project
// planner. The model is instructed to answer with a bare JSON object.
func BuildProjectPlanPrompt(profile, jobDescription, proposal, oldProposals string) string {
	var b strings.Builder

	b.WriteString(`Você é um assistente especializado em planejamento de projetos para freelancers.

Com base nas informações abaixo, crie um planejamento detalhado do projeto em formato JSON estruturado.

`)
	fmt.Fprintf(&b, "Perfil do freelancer: %s\n", profile)
	fmt.Fprintf(&b, "Descrição do job: %s\n", jobDescription)
	fmt.Fprintf(&b, "Proposta enviada: %s\n", proposal)
	if oldProposals != "" {
		fmt.Fprintf(&b, "Propostas antigas (para contexto): %s\n", oldProposals)
	}

	b.WriteString(`
Crie um planejamento que inclua:

1. Lista de tarefas principais (mínimo 5, máximo 10)
2. Ordem ideal de execução
3. Dicas práticas para cada tarefa
4. Alertas de risco potenciais
5. Sugestões de comunicação com o cliente

Formato de resposta (JSON):
{
  "plan_items": [
    {
      "id": "task_1",
      "title": "Nome da tarefa",
      "description": "Descrição detalhada",
      "order": 1,
      "tips": "Dica prática relacionada",
      "risks": "Alerta de risco se houver"
    }
  ]
}

Retorne APENAS o JSON, sem markdown, sem explicações adicionais.`)

	return b.String()
}

// BuildChatPrompt constructs the prompt for the premium client-chat helper.
func BuildChatPrompt(jobDescription, proposal, clientMessage string, history []domain.ChatMessage) string {
	var b strings.Builder

	b.WriteString(`Você é um assistente profissional que ajuda freelancers a responder mensagens de clientes de forma profissional e eficaz.

Contexto do projeto:
`)
	fmt.Fprintf(&b, "- Descrição do job: %s\n", jobDescription)
	fmt.Fprintf(&b, "- Proposta enviada: %s\n\n", proposal)

	if len(history) > 0 {
		b.WriteString("Histórico da conversa:\n")
		for _, m := range history {
			who := "Você"
			if m.From == "client" {
				who = "Cliente"
			}
			fmt.Fprintf(&b, "%s: %s\n", who, m.Message)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "O cliente enviou a seguinte mensagem:\n%q\n", clientMessage)

	b.WriteString(`
Gere uma resposta profissional que:
1. Seja empática e respeitosa
2. Demonstre conhecimento do projeto
3. Seja clara e objetiva
4. Mantenha um tom profissional mas amigável
5. Seja útil e construtiva

Responda APENAS com a mensagem para o cliente, sem explicações adicionais, sem prefixos.`)

	return b.String()
}
