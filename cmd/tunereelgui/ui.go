package main

const htmlContent = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>TuneReel</title>
    <style>
        body { margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; background: #0f0f0f; color: #eee; height: 100vh; display: flex; flex-direction: column; overflow: hidden; }

        .tabs { display: flex; background: #1a1a1a; border-bottom: 1px solid #333; height: 40px; align-items: flex-end; padding-left: 8px; flex-shrink: 0; }
        .tab {
            padding: 8px 16px;
            cursor: pointer;
            font-size: 13px;
            color: #888;
            background: #1a1a1a;
            border-top-left-radius: 6px;
            border-top-right-radius: 6px;
            margin-right: 2px;
            border: 1px solid transparent;
            border-bottom: none;
            transition: all 0.2s;
            user-select: none;
        }
        .tab.active {
            background: #0f0f0f;
            color: #fff;
            border-color: #333;
            border-bottom-color: #0f0f0f;
            margin-bottom: -1px;
            z-index: 10;
        }
        .tab:hover:not(.active) { background: #222; }

        .content { flex: 1; position: relative; display: flex; }
        .tab-content { display: none; width: 100%; height: 100%; }
        .tab-content.active { display: block; }

        .terminal-container {
            background: #060606;
            color: #ccc;
            font-family: 'Consolas', 'Monaco', 'Courier New', monospace;
            font-size: 12px;
            padding: 12px;
            overflow-y: auto;
            white-space: pre-wrap;
            word-wrap: break-word;
            height: 100%;
            box-sizing: border-box;
        }

        .app-container { padding: 24px; overflow-y: auto; height: 100%; box-sizing: border-box; }
        .stage-bar { display: flex; gap: 8px; margin-bottom: 20px; }
        .stage { padding: 6px 14px; border-radius: 14px; background: #1a1a1a; color: #666; font-size: 12px; }
        .stage.active { background: #7c4dff; color: #fff; }
        .stage.done { background: #2a2a40; color: #b39ddb; }
        .panel { background: #161616; border: 1px solid #2a2a2a; border-radius: 8px; padding: 16px; margin-bottom: 16px; }
        .panel h3 { margin: 0 0 12px 0; font-size: 14px; color: #b39ddb; }
        input[type=text], select { background: #0f0f0f; border: 1px solid #333; color: #eee; padding: 8px; border-radius: 4px; width: 100%; box-sizing: border-box; }
        button { background: #7c4dff; color: #fff; border: none; padding: 8px 18px; border-radius: 4px; cursor: pointer; font-size: 13px; }
        button:disabled { background: #333; color: #777; cursor: default; }
        button.secondary { background: #2a2a2a; }
        .progress-track { background: #0f0f0f; border-radius: 4px; height: 10px; overflow: hidden; margin: 8px 0; }
        .progress-fill { background: linear-gradient(90deg, #7c4dff, #b388ff); height: 100%; width: 0; transition: width 0.4s; }
        .muted { color: #888; font-size: 12px; }
        .error-text { color: #f44336; font-size: 13px; }

        #terminal-output span.info { color: #4caf50; }
        #terminal-output span.warn { color: #ff9800; }
        #terminal-output span.err { color: #f44336; }
        #terminal-output span.sys { color: #2196f3; font-weight: bold; }
    </style>
</head>
<body>
    <div class="tabs">
        <div class="tab" id="tab-app" onclick="switchTab('app')">STUDIO</div>
        <div class="tab active" id="tab-term" onclick="switchTab('term')">TERMINAL</div>
    </div>

    <div class="content">
        <!-- Studio Tab -->
        <div id="content-app" class="tab-content">
            <div class="app-container">
                <div class="stage-bar" id="stage-bar"></div>

                <div class="panel" id="panel-upload">
                    <h3>Audio Track</h3>
                    <input type="text" id="file-path" placeholder="Path to an audio file (.mp3, .wav, .flac)">
                    <p class="muted">Pick a local file; it is uploaded and analyzed in one step.</p>
                    <button id="btn-select" onclick="selectFile()">Upload &amp; Analyze</button>
                </div>

                <div class="panel" id="panel-style" style="display:none">
                    <h3>Style</h3>
                    <select id="style-theme" onchange="updateStyle()">
                        <option>cinematic</option><option>abstract</option><option>nature</option><option>cosmic</option><option>urban</option>
                    </select>
                    <select id="style-visual" onchange="updateStyle()" style="margin-top:8px">
                        <option>realistic</option><option>animated</option><option>artistic</option><option>retro</option>
                    </select>
                    <button id="btn-generate" onclick="generate()" style="margin-top:12px">Generate Video</button>
                </div>

                <div class="panel" id="panel-progress" style="display:none">
                    <h3 id="progress-step">Processing...</h3>
                    <div class="progress-track"><div class="progress-fill" id="progress-fill"></div></div>
                    <p class="muted" id="progress-message"></p>
                    <p class="error-text" id="progress-error" style="display:none"></p>
                </div>

                <div class="panel" id="panel-complete" style="display:none">
                    <h3>Your music video is ready</h3>
                    <button onclick="downloadVideo()">Download Video</button>
                    <button class="secondary" onclick="resetWorkflow()">Start Over</button>
                </div>
            </div>
        </div>

        <!-- Terminal Tab -->
        <div id="content-term" class="tab-content active">
            <div id="terminal-output" class="terminal-container"></div>
        </div>
    </div>

    <script>
        const output = document.getElementById('terminal-output');
        const stages = ['upload', 'analyze', 'customize', 'generate', 'complete'];
        let apiBase = '';

        function switchTab(id) {
            document.querySelectorAll('.tab').forEach(t => t.classList.remove('active'));
            document.querySelectorAll('.tab-content').forEach(c => c.classList.remove('active'));

            document.getElementById('tab-' + id).classList.add('active');
            document.getElementById('content-' + id).classList.add('active');
        }

        function appendLog(text) {
            const line = document.createElement('div');
            if (text.includes('INFO')) line.innerHTML = '<span class="info">' + text + '</span>';
            else if (text.includes('WARN')) line.innerHTML = '<span class="warn">' + text + '</span>';
            else if (text.includes('ERROR') || text.includes('FAIL')) line.innerHTML = '<span class="err">' + text + '</span>';
            else if (text.startsWith('>')) line.innerHTML = '<span class="sys">' + text + '</span>';
            else line.innerText = text;

            output.appendChild(line);
            output.scrollTop = output.scrollHeight;
        }

        function renderStages(current) {
            const idx = stages.indexOf(current);
            document.getElementById('stage-bar').innerHTML = stages.map(function(s, i) {
                const cls = i < idx ? 'stage done' : (i === idx ? 'stage active' : 'stage');
                return '<div class="' + cls + '">' + s + '</div>';
            }).join('');
        }

        function renderState(st) {
            renderStages(st.stage);
            document.getElementById('panel-upload').style.display = st.stage === 'upload' ? '' : 'none';
            document.getElementById('panel-style').style.display = (st.stage === 'customize' && !st.processing) ? '' : 'none';
            document.getElementById('panel-complete').style.display = st.stage === 'complete' ? '' : 'none';

            const p = st.progress || {};
            const busy = p.status === 'analyzing' || p.status === 'generating' || p.status === 'error';
            document.getElementById('panel-progress').style.display = busy ? '' : 'none';
            document.getElementById('progress-step').innerText = p.current_step || 'Processing...';
            document.getElementById('progress-fill').style.width = (p.progress || 0) + '%';
            document.getElementById('progress-message').innerText = p.message || '';
            const errEl = document.getElementById('progress-error');
            errEl.style.display = p.status === 'error' ? '' : 'none';
            errEl.innerText = p.status === 'error' ? (p.message || 'Something went wrong.') : '';
        }

        function connectEvents() {
            const ws = new WebSocket(apiBase.replace('http', 'ws') + '/api/events');
            ws.onmessage = function(msg) {
                const ev = JSON.parse(msg.data);
                if (ev.type === 'state') renderState(ev.state);
                if (ev.type === 'notification') appendLog('> ' + ev.message);
            };
            ws.onclose = function() { setTimeout(connectEvents, 2000); };
        }

        function selectFile() {
            const path = document.getElementById('file-path').value.trim();
            if (!path) return;
            window.bridgeSend('file-select', path);
        }

        function updateStyle() {
            fetch(apiBase + '/api/style', {
                method: 'PUT',
                headers: {'Content-Type': 'application/json'},
                body: JSON.stringify({
                    theme: document.getElementById('style-theme').value,
                    visual_style: document.getElementById('style-visual').value
                })
            });
        }

        function generate() {
            fetch(apiBase + '/api/workflow/generate', {method: 'POST'});
        }

        function resetWorkflow() {
            fetch(apiBase + '/api/workflow/reset', {method: 'POST'});
        }

        function downloadVideo() {
            window.bridgeSend('video-download', '');
        }

        // Exposed to Go
        window.enableApp = function(url) {
            apiBase = url;
            connectEvents();
            fetch(apiBase + '/api/state').then(r => r.json()).then(renderState);
            switchTab('app');
        };

        window.addLogLine = function(line) {
            appendLog(line);
        };

        window.receiveMessage = function(channel, payload) {
            if (channel === 'file-selected') {
                appendLog('> File uploaded: ' + payload);
            } else if (channel === 'download-complete') {
                appendLog('> Video saved: ' + payload);
            }
        };

        // Disable Context Menu and Refresh Shortcuts
        document.addEventListener('contextmenu', event => event.preventDefault());
        document.addEventListener('keydown', function(event) {
            if (event.key === 'F5' || (event.ctrlKey && event.key === 'r')) {
                event.preventDefault();
            }
        });
    </script>
</body>
</html>
`
