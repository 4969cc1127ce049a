package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

var (
	invitationTemplate = template.Must(template.New("invitation").Parse(`<p>Bonjour,</p>
<p>{{.InvitedByName}} vous invite à rejoindre l'administration EDJS en tant que <strong>{{.Role}}</strong>.</p>
<p><a href="{{.Link}}">Accepter l'invitation</a></p>
<p>Ce lien expire le {{.ExpiresAt}}.</p>`))

	confirmationTemplate = template.Must(template.New("confirmation").Parse(`<p>Bonjour {{.Name}},</p>
<p>Merci pour votre inscription sur EDJS. Confirmez votre adresse e-mail :</p>
<p><a href="{{.Link}}">Confirmer mon adresse</a></p>`))

	recoveryTemplate = template.Must(template.New("recovery").Parse(`<p>Bonjour,</p>
<p>Un compte existe déjà pour cette adresse. Utilisez ce lien pour définir votre mot de passe et vous connecter :</p>
<p><a href="{{.Link}}">Définir mon mot de passe</a></p>`))
)

type InvitationData struct {
	InvitedByName string
	Role          string
	Link          string
	ExpiresAt     string
}

type ConfirmationData struct {
	Name string
	Link string
}

type RecoveryData struct {
	Link string
}

func InvitationMessage(to string, data InvitationData) (Message, error) {
	html, err := render(invitationTemplate, data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Invitation administrateur EDJS",
		HTML:    html,
		Text:    fmt.Sprintf("%s vous invite à rejoindre l'administration EDJS : %s", data.InvitedByName, data.Link),
	}, nil
}

func ConfirmationMessage(to string, data ConfirmationData) (Message, error) {
	html, err := render(confirmationTemplate, data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Confirmez votre adresse e-mail EDJS",
		HTML:    html,
		Text:    "Confirmez votre adresse e-mail : " + data.Link,
	}, nil
}

func RecoveryMessage(to string, data RecoveryData) (Message, error) {
	html, err := render(recoveryTemplate, data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Accès à votre compte EDJS",
		HTML:    html,
		Text:    "Définissez votre mot de passe : " + data.Link,
	}, nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buffer bytes.Buffer
	if err := tmpl.Execute(&buffer, data); err != nil {
		return "", fmt.Errorf("render %s mail: %w", tmpl.Name(), err)
	}
	return buffer.String(), nil
}
