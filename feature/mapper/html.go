package mapper

import (
	"html"
	"strings"

	"listing-sync/feature/listings"
)

func paragraph(b *strings.Builder, s string) {
	if strings.TrimSpace(s) == "" {
		return
	}
	b.WriteString("<p>")
	b.WriteString(html.EscapeString(s))
	b.WriteString("</p>")
}

// roomsHTML renders the rooms on level as one paragraph per room, with the
// dimensions in bold when known.
func roomsHTML(rooms []listings.Room, level string) string {
	var b strings.Builder
	for _, r := range rooms {
		if r.RoomLevel != level {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(r.RoomType))
		if r.RoomDimensions != "" {
			b.WriteString(" <strong>")
			b.WriteString(html.EscapeString(r.RoomDimensions))
			b.WriteString("</strong>")
		}
		b.WriteString("</p>")
	}
	return b.String()
}

// agentCard renders the agent and office contact block. A nil member has no card.
func agentCard(m *listings.Member) any {
	if m == nil {
		return nil
	}

	var b strings.Builder
	paragraph(&b, m.MemberKey)
	paragraph(&b, fullName(m))
	paragraph(&b, m.MemberOfficePhone)
	for _, s := range m.MemberSocialMedia {
		paragraph(&b, s.SocialMediaURLOrID)
	}
	paragraph(&b, m.ModificationTimestamp)

	if o := m.Office; o != nil {
		for _, line := range []string{
			o.OfficeName,
			o.OfficeAddress1,
			o.OfficeAddress2,
			o.OfficeCity,
			o.OfficeStateOrProvince,
			o.OfficePhone,
			o.OfficeType,
			o.ModificationTimestamp,
		} {
			paragraph(&b, line)
		}
	}
	return b.String()
}

func fullName(m *listings.Member) string {
	return strings.TrimSpace(m.MemberFirstName + " " + m.MemberLastName)
}
