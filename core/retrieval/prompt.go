package retrieval

import (
	"strings"
	"text/template"

	"github.com/siherrmann/docqa/model"
)

// SystemPrompt instructs the model to stay within the retrieved context
const SystemPrompt = `You answer questions using only the provided context.
If the context does not contain the answer, say that you cannot find relevant information in the uploaded documents.
Do not use prior knowledge and do not make up facts.`

// NoContextNotice replaces the context block when nothing was retrieved
const NoContextNotice = "No relevant context was found."

var promptTemplate = template.Must(template.New("prompt").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	Parse(`Context:
{{range $i, $s := .Sources}}[{{inc $i}}] {{$s.Record.Text}}

{{else}}{{.Notice}}

{{end}}Question: {{.Question}}
Answer:`))

type promptData struct {
	Sources  []*model.RetrievalResult
	Notice   string
	Question string
}

// ComposePrompt renders the user prompt with the numbered chunk texts inline
func ComposePrompt(question string, sources []*model.RetrievalResult) (string, error) {
	var b strings.Builder
	err := promptTemplate.Execute(&b, promptData{
		Sources:  sources,
		Notice:   NoContextNotice,
		Question: question,
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
