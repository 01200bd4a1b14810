package browser

import (
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// evasionScript patches what go-rod/stealth leaves detectable for a Polish desktop Chrome.
const evasionScript = `
(function() {
    'use strict';

    // navigator.webdriver must be undefined, including on the prototype
    Object.defineProperty(navigator, 'webdriver', {
        get: () => undefined,
        configurable: true
    });
    try {
        delete Object.getPrototypeOf(navigator).webdriver;
    } catch (e) {}

    // Match the pl-PL locale the context is emulating
    Object.defineProperty(navigator, 'languages', {
        get: () => Object.freeze(['pl-PL', 'pl', 'en-US', 'en']),
        configurable: true
    });

    // Headless Chrome lacks window.chrome.runtime
    if (!window.chrome) {
        Object.defineProperty(window, 'chrome', {
            value: {},
            writable: true,
            enumerable: true,
            configurable: false
        });
    }
    if (!window.chrome.runtime) {
        window.chrome.runtime = {
            get id() { return undefined; },
            connect: function() {},
            sendMessage: function() {}
        };
    }

    // Notifications permission query must agree with Notification.permission
    try {
        const originalQuery = Permissions.prototype.query;
        Permissions.prototype.query = function(parameters) {
            if (parameters.name === 'notifications') {
                return Promise.resolve({ state: Notification.permission });
            }
            return originalQuery.call(this, parameters);
        };
    } catch (e) {}

    // WebGL vendor and renderer of a common Windows laptop
    const getParameterProxyHandler = {
        apply: function(target, ctx, args) {
            const param = args[0];
            if (param === 37445) {
                return 'Google Inc. (Intel)';
            }
            if (param === 37446) {
                return 'ANGLE (Intel, Intel(R) UHD Graphics Direct3D11 vs_5_0 ps_5_0, D3D11)';
            }
            return Reflect.apply(target, ctx, args);
        }
    };
    try {
        const gl = WebGLRenderingContext.prototype.getParameter;
        WebGLRenderingContext.prototype.getParameter = new Proxy(gl, getParameterProxyHandler);
    } catch (e) {}
    try {
        const gl2 = WebGL2RenderingContext.prototype.getParameter;
        WebGL2RenderingContext.prototype.getParameter = new Proxy(gl2, getParameterProxyHandler);
    } catch (e) {}

    if (navigator.hardwareConcurrency === 0 || navigator.hardwareConcurrency === undefined) {
        Object.defineProperty(navigator, 'hardwareConcurrency', {
            get: () => 8,
            configurable: true
        });
    }
    if (navigator.deviceMemory === undefined || navigator.deviceMemory === 0) {
        Object.defineProperty(navigator, 'deviceMemory', {
            get: () => 8,
            configurable: true
        });
    }
})();
`

// createPage opens a new tab. With stealth enabled it uses go-rod/stealth
// (puppeteer-extra-plugin-stealth evasions) plus evasionScript.
func createPage(b *rod.Browser, withStealth bool) (*rod.Page, error) {
	if !withStealth {
		return b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, err
	}

	if _, err := page.EvalOnNewDocument(evasionScript); err != nil {
		_ = page.Close()
		return nil, err
	}

	return page, nil
}
