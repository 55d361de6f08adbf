package api

// indexHTML is served at / when no index_path is configured.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>pddash</title>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
        body { font-family: system-ui, sans-serif; margin: 0; background: #f8f9fa; color: #212529; }
        header { background: #212529; color: #fff; padding: 12px 20px; display: flex; justify-content: space-between; }
        main { display: grid; grid-template-columns: 2fr 1fr; gap: 16px; padding: 16px; }
        section { background: #fff; border-radius: 6px; box-shadow: 0 2px 4px rgba(0,0,0,0.08); padding: 12px; overflow: auto; max-height: 80vh; }
        h2 { font-size: 1rem; margin: 0 0 8px; }
        pre { margin: 0 0 6px; padding: 6px; background: #f1f3f5; border-radius: 4px; white-space: pre-wrap; word-break: break-all; font-size: 12px; }
        .status { font-size: 0.85rem; }
        .ok { color: #51cf66; } .down { color: #ff6b6b; }
        table { width: 100%; font-size: 12px; border-collapse: collapse; }
        td { padding: 2px 4px; border-bottom: 1px solid #eee; }
        td.num { text-align: right; }
    </style>
</head>
<body>
    <header>
        <strong>pddash</strong>
        <span class="status">stream: <span id="status" class="down">connecting</span> | events: <span id="count">0</span></span>
    </header>
    <main>
        <section><h2>Events</h2><div id="events"></div></section>
        <section><h2>Workspace</h2><table id="files"></table></section>
    </main>
    <script>
        const eventsEl = document.getElementById('events');
        const statusEl = document.getElementById('status');
        const countEl = document.getElementById('count');
        let count = 0;

        function connect() {
            // A reconnect replays history, so start from an empty list.
            eventsEl.innerHTML = '';
            count = 0;
            const es = new EventSource('/events');
            es.onopen = () => { statusEl.textContent = 'live'; statusEl.className = 'ok'; };
            es.onmessage = (msg) => {
                const pre = document.createElement('pre');
                try { pre.textContent = JSON.stringify(JSON.parse(msg.data), null, 2); }
                catch (e) { pre.textContent = msg.data; }
                eventsEl.prepend(pre);
                countEl.textContent = ++count;
            };
            es.onerror = () => {
                statusEl.textContent = 'reconnecting'; statusEl.className = 'down';
                es.close();
                setTimeout(connect, 2000);
            };
        }

        async function refreshFiles() {
            try {
                const res = await fetch('/files');
                const files = await res.json();
                const table = document.getElementById('files');
                table.innerHTML = '';
                for (const f of files) {
                    const row = table.insertRow();
                    row.insertCell().textContent = f.path;
                    const size = row.insertCell();
                    size.textContent = f.size;
                    size.className = 'num';
                    row.insertCell().textContent = new Date(f.modified * 1000).toLocaleTimeString();
                }
            } catch (e) { /* next refresh retries */ }
        }

        connect();
        refreshFiles();
        setInterval(refreshFiles, 3000);
    </script>
</body>
</html>
`
