package roddriver

// The locator functions below run in the page. Matching follows Playwright's defaults: whitespace is collapsed, case is
// ignored, and a substring match is accepted when there is no exact match.

const normalizeJS = `
  const norm = (s) => (s || '').replace(/\s+/g, ' ').trim().toLowerCase();
  const pick = (candidates, want) => {
    let partial = null;
    for (const [el, name] of candidates) {
      const n = norm(name);
      if (n === want) return el;
      if (partial === null && n.includes(want)) partial = el;
    }
    return partial;
  };
  const labelledBy = (el) => (el.getAttribute('aria-labelledby') || '')
    .split(/\s+/)
    .map((id) => { const ref = document.getElementById(id); return ref ? ref.textContent : ''; })
    .join(' ');
`

// findByLabelJS returns the form control labelled label by a <label>, aria-labelledby, or aria-label.
const findByLabelJS = `(label) => {` + normalizeJS + `
  const want = norm(label);
  const controls = 'input:not([type=hidden]), textarea, select, [contenteditable=""], [contenteditable=true]';
  const candidates = [];
  for (const el of document.querySelectorAll('label')) {
    if (el.control) candidates.push([el.control, el.textContent]);
  }
  for (const el of document.querySelectorAll('[aria-labelledby]')) {
    candidates.push([el, labelledBy(el)]);
  }
  for (const el of document.querySelectorAll('[aria-label]')) {
    if (el.matches(controls)) candidates.push([el, el.getAttribute('aria-label')]);
  }
  return pick(candidates, want);
}`

// findByRoleJS returns the element with an explicit or implicit ARIA role and the given accessible name.
const findByRoleJS = `(role, name) => {` + normalizeJS + `
  const want = norm(name);
  const implicit = {
    button: 'button, input[type=button], input[type=submit], input[type=reset], input[type=image]',
    link: 'a[href], area[href]',
    textbox: 'input:not([type]), input[type=text], input[type=email], input[type=tel], input[type=url], textarea',
    searchbox: 'input[type=search]',
    checkbox: 'input[type=checkbox]',
    radio: 'input[type=radio]',
    heading: 'h1, h2, h3, h4, h5, h6',
  };
  let selector = '[role="' + CSS.escape(role) + '"]';
  if (implicit[role]) selector += ', ' + implicit[role];

  const accessibleName = (el) => {
    if (el.hasAttribute('aria-labelledby')) return labelledBy(el);
    if (el.hasAttribute('aria-label')) return el.getAttribute('aria-label');
    if (el.tagName === 'INPUT') {
      if (el.labels && el.labels.length) return Array.from(el.labels).map((l) => l.textContent).join(' ');
      return el.value || el.getAttribute('alt') || el.getAttribute('title') || '';
    }
    return el.textContent || el.getAttribute('title') || '';
  };

  const candidates = [];
  for (const el of document.querySelectorAll(selector)) {
    if (el.closest('[aria-hidden=true]')) continue;
    candidates.push([el, accessibleName(el)]);
  }
  return pick(candidates, want);
}`

// findByTextJS returns the innermost element of the first subtree whose text contains text.
const findByTextJS = `(text) => {` + normalizeJS + `
  const want = norm(text);
  if (!document.body) return null;
  let exact = null;
  let best = null;
  const walker = document.createTreeWalker(document.body, NodeFilter.SHOW_ELEMENT);
  for (let el = walker.currentNode; el; el = walker.nextNode()) {
    if (el.tagName === 'SCRIPT' || el.tagName === 'STYLE' || el.tagName === 'TEMPLATE') continue;
    const n = norm(el.textContent);
    if (exact === null && n === want) exact = el;
    if (n.includes(want) && (best === null || best.contains(el))) best = el;
  }
  return exact || best;
}`

// textVisibleJS reports whether the element found by findByTextJS exists, has a non-empty box, and is not
// visibility:hidden.
const textVisibleJS = `(text) => {
  const find = ` + findByTextJS + `;
  const el = find(text);
  if (!el) return false;
  const style = window.getComputedStyle(el);
  if (style.visibility === 'hidden') return false;
  const rect = el.getBoundingClientRect();
  return rect.width > 0 && rect.height > 0;
}`

// clearJS empties a form control the way a user selecting all and deleting would.
const clearJS = `() => {
  if ('value' in this) {
    this.value = '';
  } else {
    this.textContent = '';
  }
  this.dispatchEvent(new Event('input', { bubbles: true }));
  this.dispatchEvent(new Event('change', { bubbles: true }));
}`
