package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"slack-pr-sla/models"
)

// ボタンのaction_id
const (
	ActionPlusOne          = "plus_one"
	ActionAttention        = "attention_request"
	ActionRemoveRequest    = "remove_pr"
	ActionEditRequest      = "edit_pr"
	ActionRemoveReviewer   = "remove_reviewer"
	ActionRemoveAttention  = "remove_attention"
	ActionPingAttention    = "ping_attention"
	ActionPingPrevious     = "ping_previous_reviewers"
	ActionToggleHourPrefix = "toggle_hour_"
)

// モーダルのcallback_id
const (
	CallbackSubmitRequest = "submit_pr_modal"
	CallbackEditRequest   = "edit_submit_modal"
	CallbackSettings      = "pr_settings_modal"
)

// モーダルの入力ブロック
const (
	BlockRequestName     = "pr_name_block"
	ActionRequestName    = "pr_name"
	BlockRequestLink     = "pr_link_block"
	ActionRequestLink    = "pr_link"
	BlockDescription     = "pr_description_block"
	ActionDescription    = "pr_description"
	BlockReviewsNeeded   = "reviews_needed_block"
	ActionReviewsNeeded  = "reviews_needed"
	BlockSLAHours        = "sla_time_input"
	ActionSLAHours       = "sla_time_input_action"
	BlockHourButtons     = "hour_buttons"
	defaultReviewsNeeded = 2
)

// FormatOverdue は超過時間を "X hours, Y minutes" 形式にする
func FormatOverdue(d time.Duration) string {
	minutes := int(d / time.Minute)
	return fmt.Sprintf("%d hours, %d minutes", minutes/60, minutes%60)
}

// FormatUntilOverdue はSLAまでの残り時間を分単位で表す
func FormatUntilOverdue(d time.Duration) string {
	return fmt.Sprintf("%d minutes until overdue", int(d/time.Minute))
}

// displayName は解決済みの名前を返す。名前がなければメンションにする
func displayName(names map[string]string, userID string) string {
	if name, ok := names[userID]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("<@%s>", userID)
}

func requestLink(req models.ReviewRequest) string {
	target := req.Permalink
	if target == "" {
		target = req.Link
	}
	name := req.Name
	if name == "" {
		name = req.Link
	}
	return fmt.Sprintf("<%s|%s>", target, name)
}

func writeEntry(b *strings.Builder, entry DigestEntry, names map[string]string, detail string) {
	fmt.Fprintf(b, "• *%s* by %s\n", requestLink(entry.Request), displayName(names, entry.Request.SubmitterID))
	if detail != "" {
		fmt.Fprintf(b, "   - %s\n", detail)
	}
	fmt.Fprintf(b, "   - _Status_: %s\n", entry.Request.StatusText())
}

// DigestText は定期チェックで送るリマインダー本文を組み立てる
func DigestText(digest ChannelDigest, names map[string]string) string {
	var b strings.Builder
	b.WriteString("*:mega: PR Review Reminder*\n")
	fmt.Fprintf(&b, "SLA time for this channel: %d hours\n", digest.SLAHours)
	b.WriteString("Here's a summary of PRs that need your attention:\n\n")

	writeAlertSections(&b, digest, names)
	return b.String()
}

func writeAlertSections(b *strings.Builder, digest ChannelDigest, names map[string]string) {
	if len(digest.Overdue) > 0 {
		b.WriteString(":warning: *The following PRs are overdue for review*\n\n")
		for _, entry := range digest.Overdue {
			writeEntry(b, entry, names, "Overdue by "+FormatOverdue(entry.Classification.Overdue))
		}
	}

	if len(digest.NearThreshold) > 0 {
		if len(digest.Overdue) > 0 {
			b.WriteString("\n")
		}
		b.WriteString(":hourglass_flowing_sand: *The following PRs are within 1 hour of SLA*\n\n")
		for _, entry := range digest.NearThreshold {
			writeEntry(b, entry, names, FormatUntilOverdue(entry.Classification.Remaining))
		}
	}
}

// SummaryText は /pr-active の応答本文を組み立てる
func SummaryText(digest ChannelDigest, names map[string]string) string {
	if digest.IsEmpty() {
		return "No active PRs found for this channel."
	}

	var b strings.Builder
	b.WriteString("*:bell: PR Review Reminder*\n")
	fmt.Fprintf(&b, "SLA time for this channel: %d hours\n", digest.SLAHours)
	b.WriteString("Here's a summary of active PRs in this channel:\n\n")

	writeAlertSections(&b, digest, names)

	if len(digest.Active) > 0 {
		if digest.HasAlerts() {
			b.WriteString("\n")
		}
		b.WriteString(":scroll: *Other Active PRs*\n\n")
		for _, entry := range digest.Active {
			writeEntry(&b, entry, names, "")
		}
	}

	if len(digest.Reviewed) > 0 {
		if digest.HasAlerts() || len(digest.Active) > 0 {
			b.WriteString("\n")
		}
		b.WriteString(":white_check_mark: *Reviewed PRs*\n\n")
		for _, entry := range digest.Reviewed {
			writeEntry(&b, entry, names, "")
		}
	}

	return b.String()
}

// ExpiredText は自動削除したレビュー依頼の告知文
func ExpiredText(req models.ReviewRequest) string {
	return fmt.Sprintf("PR *%s* has been automatically removed after %d working days.", requestLink(req), ExpiryWorkingDays)
}

func mrkdwn(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
}

func plainText(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, text, true, false)
}

func joinNames(names map[string]string, ids []string) string {
	rendered := make([]string, 0, len(ids))
	for _, id := range ids {
		rendered = append(rendered, "*"+displayName(names, id)+"*")
	}
	return strings.Join(rendered, ", ")
}

// RequestMessageText はチャンネルに投稿するレビュー依頼の本文
func RequestMessageText(req models.ReviewRequest, names map[string]string) string {
	var b strings.Builder
	b.WriteString(":memo: *PR Reviews Requested!*\n\n")
	fmt.Fprintf(&b, "*%s*\n", requestLink(models.ReviewRequest{Link: req.Link, Name: req.Name}))
	if req.Description != "" {
		b.WriteString(req.Description + "\n")
	}

	submitted := req.Timestamp
	if t, err := req.SubmittedAt(); err == nil {
		submitted = t.Format("Jan 2, 3:04 PM")
	}
	fmt.Fprintf(&b, "\n:bust_in_silhouette: *Submitted by:* *%s* at %s\n", displayName(names, req.SubmitterID), submitted)

	if req.IsFullyReviewed() {
		fmt.Fprintf(&b, "\n:white_check_mark: Your PR was reviewed by %s!\n", joinNames(names, req.Reviewers.Sorted()))
		b.WriteString("It's ready to be merged.\nPlease merge the PR and remove it from the queue, or update the request if needed.")
	} else {
		fmt.Fprintf(&b, "\n:hourglass_flowing_sand: Needs %d more reviews\n\n", req.ReviewsRemaining())
		fmt.Fprintf(&b, ":white_check_mark: *+1s:* %s", joinNames(names, req.Reviewers.Sorted()))
	}

	if req.AttentionRequests.Len() > 0 {
		fmt.Fprintf(&b, "\n\n:speech_balloon: *Attention requested by:* %s", joinNames(names, req.AttentionRequests.Sorted()))
	}
	return b.String()
}

// RequestMessageBlocks はレビュー依頼メッセージのブロックを組み立てる
func RequestMessageBlocks(req models.ReviewRequest, names map[string]string) []slack.Block {
	attention := slack.NewButtonBlockElement(ActionAttention, req.ID, plainText(":speech_balloon:"))
	if req.AttentionRequests.Len() > 0 {
		attention = attention.WithStyle(slack.StyleDanger)
	}

	remove := slack.NewButtonBlockElement(ActionRemoveRequest, req.ID, plainText("Remove")).
		WithConfirm(slack.NewConfirmationBlockObject(
			plainText("Are you sure?"),
			mrkdwn("This action cannot be undone."),
			plainText("Yes, remove it"),
			plainText("Cancel"),
		))

	return []slack.Block{
		slack.NewSectionBlock(mrkdwn(RequestMessageText(req, names)), nil, nil),
		slack.NewActionBlock("request_actions",
			slack.NewButtonBlockElement(ActionPlusOne, req.ID, plainText("+1")),
			attention,
			remove,
			slack.NewButtonBlockElement(ActionEditRequest, req.ID, plainText("Edit")),
		),
	}
}

func textInput(blockID, actionID, label, initial string, optional, multiline bool) *slack.InputBlock {
	element := slack.NewPlainTextInputBlockElement(nil, actionID)
	if initial != "" {
		element = element.WithInitialValue(initial)
	}
	if multiline {
		element = element.WithMultiline(true)
	}
	block := slack.NewInputBlock(blockID, plainText(label), nil, element)
	block.Optional = optional
	return block
}

// SubmitModal はレビュー依頼の入力モーダル。private_metadata に投稿先チャンネルを持つ
func SubmitModal(channelID string) slack.ModalViewRequest {
	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      CallbackSubmitRequest,
		PrivateMetadata: channelID,
		Title:           plainText("Submit PR"),
		Submit:          plainText("Submit"),
		Close:           plainText("Cancel"),
		Blocks: slack.Blocks{BlockSet: []slack.Block{
			textInput(BlockRequestName, ActionRequestName, "PR Name", "", true, false),
			textInput(BlockRequestLink, ActionRequestLink, "PR Link", "", false, false),
			textInput(BlockDescription, ActionDescription, "PR Description", "", true, true),
			textInput(BlockReviewsNeeded, ActionReviewsNeeded, "Reviews Needed", strconv.Itoa(defaultReviewsNeeded), true, false),
		}},
	}
}

// EditModal はレビュー依頼の編集モーダル。削除予定のユーザーは表示しない
func EditModal(req models.ReviewRequest, names map[string]string) slack.ModalViewRequest {
	blocks := []slack.Block{
		textInput(BlockRequestName, ActionRequestName, "PR Name", req.Name, false, false),
		slack.NewSectionBlock(mrkdwn("*PR Link*\n"+req.Link), nil, nil),
		textInput(BlockDescription, ActionDescription, "PR Description", req.Description, true, true),
		textInput(BlockReviewsNeeded, ActionReviewsNeeded, "Reviews Needed", strconv.Itoa(req.ReviewsNeeded), true, false),
		slack.NewDividerBlock(),
		slack.NewSectionBlock(mrkdwn("*Reviewers*"), nil, nil),
	}

	var reviewers []string
	for _, id := range req.Reviewers.Sorted() {
		if !req.PendingReviewerRemovals.Has(id) {
			reviewers = append(reviewers, id)
		}
	}
	for _, id := range reviewers {
		remove := slack.NewButtonBlockElement(ActionRemoveReviewer, id, plainText("Remove")).WithStyle(slack.StyleDanger)
		blocks = append(blocks, slack.NewSectionBlock(
			mrkdwn("*"+displayName(names, id)+"*"), nil, slack.NewAccessory(remove),
			slack.SectionBlockOptionBlockID("reviewer_"+id),
		))
	}
	if len(reviewers) > 0 {
		blocks = append(blocks, slack.NewActionBlock("ping_previous",
			slack.NewButtonBlockElement(ActionPingPrevious, req.ID, plainText("Ping previous reviewers to redo +1")),
		))
	}

	blocks = append(blocks,
		slack.NewDividerBlock(),
		slack.NewSectionBlock(mrkdwn("*Attention Requested*"), nil, nil),
	)
	for _, id := range req.AttentionRequests.Sorted() {
		if req.PendingAttentionRemovals.Has(id) {
			continue
		}
		blocks = append(blocks,
			slack.NewSectionBlock(mrkdwn(fmt.Sprintf("<@%s>", id)), nil, nil),
			slack.NewActionBlock("attention_"+id,
				slack.NewButtonBlockElement(ActionPingAttention, id, plainText("Ping & Remove")).WithStyle(slack.StylePrimary),
				slack.NewButtonBlockElement(ActionRemoveAttention, id, plainText("Remove")).WithStyle(slack.StyleDanger),
			),
		)
	}

	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      CallbackEditRequest,
		PrivateMetadata: req.ID,
		Title:           plainText("Edit PR"),
		Submit:          plainText("Save Changes"),
		Close:           plainText("Cancel"),
		Blocks:          slack.Blocks{BlockSet: blocks},
	}
}

// hourLabel は 13 → "1:00" のように12時間表記にする
func hourLabel(hour int) string {
	display := hour
	if display > 12 {
		display -= 12
	}
	return fmt.Sprintf("%d:00", display)
}

// SettingsModal はチャンネル設定のモーダル。有効な時間帯のボタンは primary で表示する
func SettingsModal(policy models.ChannelPolicy) slack.ModalViewRequest {
	buttons := make([]slack.BlockElement, 0, models.LastConfigurableHour-models.FirstConfigurableHour+1)
	for hour := models.FirstConfigurableHour; hour <= models.LastConfigurableHour; hour++ {
		button := slack.NewButtonBlockElement(ActionToggleHourPrefix+strconv.Itoa(hour), strconv.Itoa(hour), plainText(hourLabel(hour)))
		if policy.EnabledHours.Contains(hour) {
			button = button.WithStyle(slack.StylePrimary)
		}
		buttons = append(buttons, button)
	}

	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      CallbackSettings,
		PrivateMetadata: policy.ChannelID,
		Title:           plainText("PR Settings"),
		Submit:          plainText("Save"),
		Close:           plainText("Cancel"),
		Blocks: slack.Blocks{BlockSet: []slack.Block{
			slack.NewSectionBlock(mrkdwn("*Configure settings for this channel:*"), nil, nil),
			textInput(BlockSLAHours, ActionSLAHours, "SLA Time (in hours)", strconv.Itoa(policy.SLAHours), false, false),
			slack.NewSectionBlock(mrkdwn("*Configure SLA Check Hours (click to enable/disable)*"), nil, nil),
			slack.NewActionBlock(BlockHourButtons, buttons...),
		}},
	}
}

// HomeView はユーザーが提出したレビュー依頼の一覧をApp Homeに表示する
func HomeView(requests []models.ReviewRequest, names map[string]string) slack.HomeTabViewRequest {
	blocks := []slack.Block{
		slack.NewHeaderBlock(plainText("Your PRs")),
	}

	if len(requests) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(mrkdwn("You have no PRs waiting for review."), nil, nil))
	}

	for _, req := range requests {
		text := fmt.Sprintf("*%s*\n_Status_: %s", requestLink(req), req.StatusText())
		if req.Reviewers.Len() > 0 {
			text += " - reviewed by " + joinNames(names, req.Reviewers.Sorted())
		}
		remove := slack.NewButtonBlockElement(ActionRemoveRequest, req.ID, plainText("Remove")).WithStyle(slack.StyleDanger)
		blocks = append(blocks,
			slack.NewSectionBlock(mrkdwn(text), nil, slack.NewAccessory(remove)),
			slack.NewDividerBlock(),
		)
	}

	return slack.HomeTabViewRequest{
		Type:   slack.VTHomeTab,
		Blocks: slack.Blocks{BlockSet: blocks},
	}
}
