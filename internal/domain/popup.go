package domain

import (
	"strconv"
	"strings"
)

const (
	unknownName      = "Unknown"
	unknownElevation = "N/A"
)

// popupTemplate is the fixed popup fragment. It is rendered inside its own
// iframe, so the body rules only affect the popup.
const popupTemplate = `
<div class="popup-content">
    <p><strong>Name:</strong> <a href="https://www.google.com/search?q={query}" target="_blank">{name}</a></p>
    <p><strong>Elevation:</strong> {elev} mts</p>
</div>
<style>
    body {
        margin: 0;
        padding: 0;
        box-sizing: border-box;
        font-family: Arial, sans-serif;
        display: flex;
        justify-content: center;
        align-items: center;
        height: 100vh;
    }
    .popup-content {
        display: flex;
        flex-direction: column;
        align-items: center;
        justify-content: center;
        min-width: 150px;
        gap: 0.5rem;
    }
    .popup-content p {
        margin: 0;
        font-size: 0.8rem;
    }
    .popup-content p a {
        color: #007bff;
        text-decoration: none;
        position: relative;
    }
    .popup-content p a::after {
        content: "";
        position: absolute;
        left: 0;
        bottom: 0;
        width: 0;
        height: 1px;
        background-color: #007bff;
        transition: width 0.1s ease;
    }
    .popup-content p a:hover::after {
        width: 100%;
    }
</style>
`

// FormatPopup renders the popup HTML for a volcano.
//
// An empty or nil name becomes "Unknown" and produces an empty search query.
// Elevation is truncated to an integer, or "N/A" when nil or non-finite. Inputs are
// substituted verbatim without HTML escaping.
func FormatPopup(name *string, elev *float64) string {
	n := unknownName
	if name != nil && *name != "" {
		n = *name
	}

	e := unknownElevation
	if knownElevation(elev) {
		e = strconv.FormatInt(int64(*elev), 10)
	}

	query := ""
	if n != unknownName {
		query = n + " volcano"
	}

	// Single pass, so a name containing a placeholder is not expanded again.
	r := strings.NewReplacer("{name}", n, "{elev}", e, "{query}", query)
	return r.Replace(popupTemplate)
}
