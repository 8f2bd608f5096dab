package http

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>PrivateGPT</title>
    <style>
        body { margin: 0; font-family: system-ui, sans-serif; display: flex; min-height: 100vh; background: #fafafa; color: #222; }
        aside { width: 280px; padding: 24px; background: #f0f2f6; border-right: 1px solid #ddd; }
        aside label { display: block; font-size: 14px; margin-bottom: 8px; }
        aside .doc { margin-top: 16px; font-size: 13px; color: #555; word-break: break-all; }
        main { flex: 1; display: flex; flex-direction: column; max-width: 820px; margin: 0 auto; padding: 24px; }
        #messages { flex: 1; overflow-y: auto; }
        .message { padding: 10px 14px; margin: 8px 0; border-radius: 8px; white-space: pre-wrap; }
        .message.human { background: #e8eefc; }
        .message.ai { background: #fff; border: 1px solid #eee; }
        .error { color: #b00020; }
        form#ask { display: flex; gap: 8px; margin-top: 16px; }
        form#ask input { flex: 1; padding: 10px; font-size: 15px; }
        .cursor { animation: blink 1s step-start infinite; }
        @keyframes blink { 50% { opacity: 0; } }
    </style>
</head>
<body>
    <aside>
        <form id="upload">
            <label for="file">Upload a .txt .pdf or .docx file</label>
            <input type="file" id="file" name="file" accept="{{.Accept}}">
        </form>
        <div class="doc" id="doc"></div>
        <div class="error" id="upload-error"></div>
    </aside>
    <main>
        <h1>PrivateGPT</h1>
        <p>Welcome!</p>
        <p>Use this chatbot to ask questions to an AI about your files!</p>
        <p>Upload the files on the sidebar.</p>

        <div id="messages"></div>

        <form id="ask">
            <input type="text" id="question" placeholder="Ask anything about your file..." autocomplete="off" disabled>
            <button type="submit" id="send" disabled>Send</button>
        </form>
    </main>

    <script>
        const messages = document.getElementById('messages');
        const question = document.getElementById('question');
        const send = document.getElementById('send');
        const docLabel = document.getElementById('doc');
        const uploadError = document.getElementById('upload-error');

        function escapeHtml(text) {
            const div = document.createElement('div');
            div.textContent = text;
            return div.innerHTML;
        }

        function addMessage(role, html) {
            const el = document.createElement('div');
            el.className = 'message ' + role;
            el.innerHTML = html;
            messages.appendChild(el);
            messages.scrollTop = messages.scrollHeight;
            return el;
        }

        function setReady(doc) {
            const ready = !!doc;
            question.disabled = !ready;
            send.disabled = !ready;
            docLabel.textContent = ready ? 'Loaded: ' + doc.name : '';
        }

        async function refresh() {
            const session = await (await fetch('/api/session')).json();
            messages.innerHTML = '';
            setReady(session.document);
            if (!session.document) return;
            addMessage('ai', escapeHtml('Ask anything about the file you uploaded!'));
            const history = await (await fetch('/api/messages')).json();
            for (const m of history) addMessage(m.role, escapeHtml(m.text));
        }

        document.getElementById('file').addEventListener('change', async function (e) {
            const file = e.target.files[0];
            if (!file) return;
            uploadError.textContent = '';
            docLabel.textContent = 'Embedding file...';
            const body = new FormData();
            body.append('file', file);
            const resp = await fetch('/api/upload', { method: 'POST', body: body });
            if (!resp.ok) {
                const data = await resp.json().catch(function () { return {}; });
                uploadError.textContent = data.error || resp.statusText;
            }
            await refresh();
        });

        document.getElementById('ask').addEventListener('submit', function (e) {
            e.preventDefault();
            const q = question.value.trim();
            if (!q) return;
            question.value = '';
            question.disabled = true;
            send.disabled = true;

            addMessage('human', escapeHtml(q));
            const answer = addMessage('ai', '<span class="cursor">▊</span>');
            let full = '';

            const source = new EventSource('/api/ask/stream?q=' + encodeURIComponent(q));
            function finish() {
                source.close();
                question.disabled = false;
                send.disabled = false;
                question.focus();
            }
            source.onmessage = function (event) {
                const data = JSON.parse(event.data);
                if (data.error) {
                    answer.innerHTML = '<span class="error">' + escapeHtml(data.error) + '</span>';
                    finish();
                } else if (data.done) {
                    answer.innerHTML = escapeHtml(full);
                    finish();
                } else if (data.content) {
                    full += data.content;
                    answer.innerHTML = escapeHtml(full) + '<span class="cursor">▊</span>';
                    messages.scrollTop = messages.scrollHeight;
                }
            };
            source.onerror = function () {
                answer.innerHTML = '<span class="error">Connection error</span>';
                finish();
            };
        });

        refresh();
    </script>
</body>
</html>`
