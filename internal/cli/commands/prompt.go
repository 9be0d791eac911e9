package commands

import (
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/buildmcp/buildmcp/internal/model"
)

// prompter asks the interactive questions of generate --interactive.
type prompter interface {
	Input(message, def string, required bool) (string, error)
	Select(message string, options []string, def string) (string, error)
	MultiSelect(message string, options []string) ([]string, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Input(message, def string, required bool) (string, error) {
	var answer string
	opts := []survey.AskOpt{}
	if required {
		opts = append(opts, survey.WithValidator(survey.Required))
	}
	err := survey.AskOne(&survey.Input{Message: message, Default: def}, &answer, opts...)
	return answer, err
}

func (surveyPrompter) Select(message string, options []string, def string) (string, error) {
	var answer string
	err := survey.AskOne(&survey.Select{Message: message, Options: options, Default: def}, &answer)
	return answer, err
}

func (surveyPrompter) MultiSelect(message string, options []string) ([]string, error) {
	var answer []string
	err := survey.AskOne(&survey.MultiSelect{Message: message, Options: options}, &answer)
	return answer, err
}

// knownClients are offered in the interactive client picker.
var knownClients = []string{"Claude Desktop", "Claude Code", "Cursor", "VS Code", "Windsurf"}

// askRequirements fills req interactively. Values already present become
// the defaults.
func askRequirements(p prompter, req *model.ServerRequirements, defLang model.Language) error {
	desc, err := p.Input("Describe the MCP server to build:", req.Description, true)
	if err != nil {
		return err
	}
	req.Description = desc

	clients, err := p.MultiSelect("Which clients will connect to it?", knownClients)
	if err != nil {
		return err
	}
	extra, err := p.Input("Other clients (comma separated, optional):", "", false)
	if err != nil {
		return err
	}
	req.TargetClients = append(append(req.TargetClients, clients...), splitList(extra)...)

	auth, err := p.Input("Authentication requirements (optional):", req.AuthRequirements, false)
	if err != nil {
		return err
	}
	req.AuthRequirements = auth

	def := string(req.DeploymentPreference)
	if def == "" {
		def = string(model.DeployLocal)
	}
	deploy, err := p.Select("Deployment target:",
		[]string{string(model.DeployLocal), string(model.DeployCloud), string(model.DeployBoth)}, def)
	if err != nil {
		return err
	}
	req.DeploymentPreference = model.DeploymentPreference(deploy)

	lang := req.ResolveLanguage(defLang)
	chosen, err := p.Select("Server language:",
		[]string{string(model.LanguageTypeScript), string(model.LanguagePython)}, string(lang))
	if err != nil {
		return err
	}
	req.LanguagePreference = chosen
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
