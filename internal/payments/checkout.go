package payments

import (
	"bytes"
	"fmt"
	"html/template"
)

const inlineScriptURL = "https://js.paystack.co/v1/inline.js"

var checkoutTemplate = template.Must(template.New("checkout").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Checkout</title>
</head>
<body>
<p id="status">Loading payment…</p>
<script>
(function () {
  var setup = {{.Setup}};
  var resultURL = {{.ResultURL}};
  var token = {{.Token}};
  var reported = false;

  function relay(outcome) {
    if (window.ReactNativeWebView) {
      window.ReactNativeWebView.postMessage(JSON.stringify(outcome));
    } else if (window.parent !== window) {
      window.parent.postMessage(outcome, "*");
    }
  }

  function post(outcome, attempt) {
    fetch(resultURL, {
      method: "POST",
      headers: {"Content-Type": "application/json"},
      body: JSON.stringify({token: token, outcome: outcome})
    }).then(function (res) {
      if (res.status >= 500 && attempt < 3) { post(outcome, attempt + 1); }
    }).catch(function () {
      if (attempt < 3) { setTimeout(function () { post(outcome, attempt + 1); }, 1000 * attempt); }
    });
  }

  function report(outcome) {
    if (reported) { return; }
    reported = true;
    document.getElementById("status").textContent = "Finishing…";
    post(outcome, 1);
    relay(outcome);
  }

  function open() {
    try {
      var handler = PaystackPop.setup({
        key: setup.key,
        email: setup.email,
        amount: setup.amount,
        currency: setup.currency,
        ref: setup.ref,
        metadata: setup.metadata,
        callback: function (response) { report({kind: "success", response: response}); },
        onClose: function () { report({kind: "cancel"}); }
      });
      handler.openIframe();
    } catch (e) {
      report({kind: "error", message: String(e && e.message ? e.message : e)});
    }
  }

  var script = document.createElement("script");
  script.src = {{.ScriptURL}};
  script.onload = open;
  script.onerror = function () { report({kind: "error", message: "payment provider failed to load"}); };
  document.body.appendChild(script);
})();
</script>
</body>
</html>
`))

type checkoutData struct {
	Setup     SetupPayload
	ResultURL string
	Token     string
	ScriptURL string
}

// RenderCheckout renders the page the embedded web view loads for session.
// resultURL is where the page posts its single result.
func (b *Bridge) RenderCheckout(session *Session, resultURL string) ([]byte, error) {
	var buf bytes.Buffer
	err := checkoutTemplate.Execute(&buf, checkoutData{
		Setup:     b.Setup(session),
		ResultURL: resultURL,
		Token:     session.Token,
		ScriptURL: inlineScriptURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render checkout page: %w", err)
	}
	return buf.Bytes(), nil
}
